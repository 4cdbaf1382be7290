package core

// error_messages.go attaches support codes to errors returned by the API.
//
// The JSON error body keeps the technical message in "error" so the page can
// show exactly what went wrong; "code" and "action" come from the table below.
//
//	FILE001  upload exceeds the size limit
//	FILE002  file is not a readable workbook
//	FILE003  file extension not accepted
//	FILE004  no file in the request
//	FILE005  workbook has no worksheets
//	REQ001   update instruction incomplete
//	REQ002   export snapshot malformed
//	REQ003   request body is not JSON
//	UPL002   too many uploads in progress
//	UPL004   request cancelled
//	UPL005   request timed out
//	RATE001  rate limited
//	ERR000   anything else; check the server log for the request id

import "strings"

// UserMessage provides a support code and suggested action for an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively with strings.Contains.
// The first match wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{"request body too large", UserMessage{"File exceeds maximum size limit", "Upload a file smaller than 16MB", "FILE001"}},
	{"file too large", UserMessage{"File exceeds maximum size limit", "Upload a file smaller than 16MB", "FILE001"}},
	{"not a valid zip file", UserMessage{"File is not a readable workbook", "Save the file as .xlsx and try again", "FILE002"}},
	{"open workbook", UserMessage{"File is not a readable workbook", "Save the file as .xlsx and try again", "FILE002"}},
	{"invalid file type", UserMessage{"File type not accepted", "Select an .xlsx or .xls file", "FILE003"}},
	{"no file part", UserMessage{"No file was sent", "Select a spreadsheet to upload", "FILE004"}},
	{"no selected file", UserMessage{"No file was selected", "Select a spreadsheet to upload", "FILE004"}},
	{"no worksheets", UserMessage{"Workbook has no worksheets", "Add a sheet with a header row", "FILE005"}},
	{"invalid update data", UserMessage{"Update is missing a row or value", "Reload the page and try again", "REQ001"}},
	{"invalid json body", UserMessage{"Request body is not valid JSON", "Reload the page and try again", "REQ003"}},
	{"malformed snapshot", UserMessage{"Table data could not be read", "Reload the page and upload the file again", "REQ002"}},
	{"too many uploads", UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL005"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the support message for err, or ERR000 when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	return MapMessage(err.Error())
}

// MapMessage is MapError for an already formatted message.
func MapMessage(text string) UserMessage {
	lower := strings.ToLower(text)
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}
