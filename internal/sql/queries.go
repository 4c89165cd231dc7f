package sql

import (
	"embed"
)

// Migrations holds the schema files applied by db.ApplyMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/find_procedure_by_code.sql
var FindProcedureByCode string

//go:embed queries/insert_procedure.sql
var InsertProcedure string

//go:embed queries/update_procedure.sql
var UpdateProcedure string

//go:embed queries/list_procedures.sql
var ListProcedures string

//go:embed queries/register_import_run.sql
var RegisterImportRun string

//go:embed queries/finish_import_run.sql
var FinishImportRun string
