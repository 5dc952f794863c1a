// Package http implements the HTTP handlers of the SellerPulse service.
// Handlers stay thin: they parse and validate the request, call a service,
// and render the result or an RFC 7807 problem.
//
// # Endpoints
//
//	POST   /api/uploads                 multipart "file" plus optional "marketplace"
//	GET    /api/analytics               start_date, end_date, marketplace, fulfillment
//	GET    /api/analytics/compare       the analytics filters plus mode
//	GET    /api/marketplaces            stored marketplaces with upload history
//	GET    /api/marketplaces/{code}     one marketplace
//	DELETE /api/marketplaces/{code}     remove a marketplace's data
//	GET    /api/rates                   current exchange rate table
//	GET    /api/version                 build information
//	GET    /healthz                     readiness
//	GET    /metrics                     Prometheus scrape
//
// # Error Handling
//
// Every error goes through errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Validation Failed",
//	    "status": 400,
//	    "detail": "unknown marketplace \"ZZ\"",
//	    "instance": "/api/analytics"
//	}
//
// Rejected workbooks answer 422 (unreadable, no header, no marketplace) or
// 413 (row limits); nothing of a rejected file is stored.
package http
