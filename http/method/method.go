package method

// Method is an upper-case request method token. Methods are compared as plain
// strings, so any token (e.g. WebDAV extensions) can be routed.
type Method = string

const (
	GET     Method = "GET"
	HEAD    Method = "HEAD"
	POST    Method = "POST"
	PUT     Method = "PUT"
	DELETE  Method = "DELETE"
	CONNECT Method = "CONNECT"
	OPTIONS Method = "OPTIONS"
	TRACE   Method = "TRACE"
	PATCH   Method = "PATCH"
)

// List contains the methods having a registration shortcut.
var List = []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH}

// IsValid reports whether the string is a non-empty upper-case method token.
func IsValid(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		if c := str[i]; (c < 'A' || c > 'Z') && c != '-' && c != '_' {
			return false
		}
	}

	return true
}
