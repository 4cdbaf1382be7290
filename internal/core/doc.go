// Package core implements the spreadsheet operations behind the HTTP API.
//
// The service is stateless between requests. A table exists only while one
// request is being served:
//
//   - [Service.Ingest] copies an uploaded workbook into a private workspace,
//     parses the first sheet and attaches thumbnails for rows whose image
//     column holds a URL.
//   - [Service.Export] rebuilds a workbook from the client's snapshot into a
//     private workspace. The caller streams it and then closes the [Export],
//     which removes the file.
//   - [Acknowledge] formats the reply to an edit without storing anything.
//
// Admission to Ingest is bounded by an [UploadLimiter]. Ingest and export
// activity is reported to an audit.Recorder; recording failures are logged
// and otherwise ignored.
package core
