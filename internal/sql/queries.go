// Package sql embeds the schema migrations and the hand-written queries used
// by the ledger store.
package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/find_by_message_id.sql
var FindByMessageID string

//go:embed queries/find_by_claim_number.sql
var FindByClaimNumber string

//go:embed queries/find_by_patient_hospital.sql
var FindByPatientHospital string

//go:embed queries/insert_claim.sql
var InsertClaim string

//go:embed queries/update_claim.sql
var UpdateClaim string

//go:embed queries/history_exists.sql
var HistoryExists string

//go:embed queries/insert_history.sql
var InsertHistory string

//go:embed queries/insert_log.sql
var InsertLog string

//go:embed queries/cleanup_junk.sql
var CleanupJunk string

//go:embed queries/repair_settled_balances.sql
var RepairSettledBalances string

//go:embed queries/backfill_defaults.sql
var BackfillDefaults string

//go:embed queries/last_message_id.sql
var LastMessageID string

//go:embed queries/list_claims.sql
var ListClaims string

//go:embed queries/list_history.sql
var ListHistory string

//go:embed queries/list_logs.sql
var ListLogs string

//go:embed queries/count_logs_by_status.sql
var CountLogsByStatus string

//go:embed queries/count_claims.sql
var CountClaims string
