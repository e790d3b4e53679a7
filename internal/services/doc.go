// Package services sits between the HTTP and CLI surfaces and the analysis
// engine. It owns the collaborators of a run: the row source, the engine
// with its outsourcing lookup, tracing and business metrics.
//
// # Errors
//
// Services return copies of the package-level AppErrors in errors.go so
// handlers can classify failures with errors.Is and the error handler can
// map them onto HTTP statuses:
//
//	ErrSourceUnavailable      503
//	ErrNoData, ErrPartNotFound 404
//	ErrAnalysisConfiguration  422, failed result attached
//	ErrInvalidMode            400
//
// Anything else is unexpected and surfaces as a 500 carrying its message.
//
// # Testing
//
// Collaborators are interfaces and are mocked with testify/mock:
//
//	src := new(MockRowSource)
//	src.On("FetchRows", mock.Anything).Return(testutil.ProcurementTable(), nil)
package services
