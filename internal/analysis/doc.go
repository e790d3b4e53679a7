// Package analysis implements the procurement opportunity engine.
//
// A run is a pipeline of pure stages over one fetched table:
//
//  1. Ingestion: rows missing a part number or supplier are dropped, fixed
//     fields are resolved through header aliases.
//  2. Column discovery: headers such as "priceJanuary2025" or
//     "Price evo index Jan 2025" are parsed once into a ColumnRegistry.
//  3. Flagging: the Analyzer compares each row's target-period price with the
//     market index and with the preceding month.
//  4. Enrichment: flagged rows become Renegotiation, Insourcing and
//     Outsourcing opportunities, the latter through a SupplierLookup.
//
// All money and percentage arithmetic uses shopspring/decimal so that
// threshold comparisons are exact: 11.00 against an index of 10.00 is a
// deviation of exactly 10% and is not flagged.
package analysis
