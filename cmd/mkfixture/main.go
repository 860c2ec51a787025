// mkfixture writes a small directory of synthetic claim correspondence as
// .eml files: one lifecycle per claim plus a few messages that exercise the
// skip and placeholder paths.
// Usage: go run ./cmd/mkfixture --out testdata/mail --claims 5
package main

import (
	"bytes"
	"encoding/base64"
	"flag"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	patients = []string{"Ravi Kumar", "Anita Sharma", "Meena Iyer", "Suresh Rao", "Kiran Das", "Farah Khan"}
	insurers = []string{"Star Health", "Care Health", "Niva Bupa", "ICICI Lombard"}
	tpas     = []string{"Medi Assist", "Paramount Health Services", "Vidal Health", "Raksha Health"}
)

type attachment struct {
	name string
	data []byte
}

type message struct {
	id          string
	date        time.Time
	subject     string
	body        string
	attachments []attachment
}

func main() {
	out := flag.String("out", "testdata/mail", "output directory")
	claims := flag.Int("claims", 5, "number of claim lifecycles to generate")
	start := flag.String("start", time.Now().AddDate(0, 0, -7).Format("2006-01-02"), "date of the first message")
	flag.Parse()

	base, err := time.Parse("2006-01-02", *start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse --start: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}

	var msgs []message
	for i := 0; i < *claims; i++ {
		lifecycle, err := claimLifecycle(i, base.Add(time.Duration(i)*3*time.Hour))
		if err != nil {
			fmt.Fprintf(os.Stderr, "build claim %d: %v\n", i, err)
			os.Exit(1)
		}
		msgs = append(msgs, lifecycle...)
	}
	msgs = append(msgs, extras(base)...)

	for _, m := range msgs {
		raw, err := render(m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "render %s: %v\n", m.id, err)
			os.Exit(1)
		}
		path := filepath.Join(*out, m.id+".eml")
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Wrote %d messages to %s\n", len(msgs), *out)
}

func claimLifecycle(i int, at time.Time) ([]message, error) {
	patient := patients[i%len(patients)]
	insurer := insurers[i%len(insurers)]
	tpa := tpas[i%len(tpas)]
	claimNo := fmt.Sprintf("CLM%06d", 481200+i)
	uhid := fmt.Sprintf("UH-%05d", 7300+i)
	total := 40000 + i*7500
	approved := total - 2500 - i*500
	admitted := at.AddDate(0, 0, -3).Format("02/01/2006")

	sheet, err := settlementSheet(patient, claimNo, total, approved)
	if err != nil {
		return nil, err
	}

	id := func(stage string) string { return fmt.Sprintf("claim%02d-%s", i, stage) }
	return []message{
		{
			id:      id("1-intimation"),
			date:    at,
			subject: "Claim Intimation " + claimNo,
			body: fmt.Sprintf("Dear Team,\n\nClaim intimated for Patient Name: %s\nUHID: %s\nClaim No: %s\n"+
				"Insurance Company: %s\nAdmission Date: %s\nTotal Bill Amount: Rs. %d\n\nRegards,\n%s",
				patient, uhid, claimNo, insurer, admitted, total, tpa),
		},
		{
			id:      id("2-approval"),
			date:    at.Add(26 * time.Hour),
			subject: "Cashless Authorization Approved - " + claimNo,
			body: fmt.Sprintf("Patient Name: %s\nClaim No: %s\nThe claim approved for Approved Amount: Rs. %d.\n"+
				"Deductions as per policy terms.\nTPA: %s", patient, claimNo, approved, tpa),
		},
		{
			id:      id("3-settlement"),
			date:    at.Add(5 * 24 * time.Hour),
			subject: "Payment Advice - " + claimNo,
			body: fmt.Sprintf("Patient Name: %s\nClaim No: %s\nNet Payable: Rs. %d\nUTR No: UTR%09d\n"+
				"Settlement Date: %s\nPlease find the settlement letter attached.",
				patient, claimNo, approved, 880000000+i, at.Add(5*24*time.Hour).Format("02/01/2006")),
			attachments: []attachment{{name: "settlement_" + claimNo + ".xlsx", data: sheet}},
		},
	}, nil
}

func extras(at time.Time) []message {
	return []message{
		{
			id:      "extra-query",
			date:    at.Add(2 * time.Hour),
			subject: "Query raised on claim CLM900100",
			body: "Patient Name: Farah Khan\nUHID: UH-09911\nClaim No: CLM900100\n" +
				"Query raised: kindly share the discharge summary and final bill.",
		},
		{
			id:      "extra-bulk-payment",
			date:    at.Add(4 * time.Hour),
			subject: "Bulk payment advice",
			body:    "Payment advice for Claim No: CLM900200\nNet Payable: Rs. 15,000\nNEFT reference NEFT77120",
		},
		{
			id:      "extra-whatsapp",
			date:    at.Add(5 * time.Hour),
			subject: "Fwd: photos",
			body:    "Forwarding the photos from the ward.",
			attachments: []attachment{
				{name: "WhatsApp Image 2024-06-01.jpg", data: []byte("not really a jpeg")},
			},
		},
	}
}

func settlementSheet(patient, claimNo string, total, approved int) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Patient Name", patient},
		{"Claim No", claimNo},
		{"Total Bill Amount", total},
		{"Approved Amount", approved},
		{"Settled Amount", approved},
		{"Rejected Amount", total - approved},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func render(m message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: claims@tpa.example.com\r\n")
	fmt.Fprintf(&buf, "To: billing@hospital.example.com\r\n")
	fmt.Fprintf(&buf, "Subject: %s\r\n", m.subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", m.date.Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@fixture.claimledger>\r\n", m.id)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	body := strings.ReplaceAll(m.body, "\n", "\r\n")
	if len(m.attachments) == 0 {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", body)
		return buf.Bytes(), nil
	}

	var parts bytes.Buffer
	w := multipart.NewWriter(&parts)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", w.Boundary())

	text, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return nil, err
	}
	for _, a := range m.attachments {
		p, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/octet-stream"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.name)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := p.Write([]byte(wrap(base64.StdEncoding.EncodeToString(a.data), 76))); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	buf.Write(parts.Bytes())
	return buf.Bytes(), nil
}

func wrap(s string, width int) string {
	var sb strings.Builder
	for len(s) > width {
		sb.WriteString(s[:width])
		sb.WriteString("\r\n")
		s = s[width:]
	}
	sb.WriteString(s)
	return sb.String()
}
