package config

// Application constants
const (
	// Application Info
	AppName    = "Procurement Opportunity Analyzer"
	AppVersion = "1.2.0"

	// Row source kinds
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"

	// SheetsReadOnlyScope is the only OAuth scope the service ever requests.
	SheetsReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"
)
