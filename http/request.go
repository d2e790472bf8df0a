package http

import (
	"net"

	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"

	"github.com/indigo-web/xpress/config"
	"github.com/indigo-web/xpress/http/mime"
	"github.com/indigo-web/xpress/http/status"
	"github.com/indigo-web/xpress/kv"
)

type (
	Headers = *kv.Storage
	Query   = *kv.Storage
	Params  = *kv.Storage
)

// Request represents HTTP request. It's filled once by the parser, then once by the router
// (Params only), and must be treated as read-only by handlers.
type Request struct {
	// Method is the upper-case method token as it was received.
	Method string
	// Path is the request target without the query. It always starts with a slash.
	Path string
	// Query holds the URI query parameters. On duplicate keys the last one wins, keys
	// without a value map to an empty string.
	Query Query
	// Headers holds header pairs with lower-cased keys. Lookup is case-insensitive anyway.
	// On duplicate keys the last one wins.
	Headers Headers
	// Body is the whole request body, exactly as long as declared via Content-Length.
	Body []byte
	// Params are the values captured by dynamic path segments.
	Params Params
	// ID is a random identifier of the request, used mainly for log correlation.
	ID string
	// Remote holds the remote address. Please note that this is generally not a good parameter
	// to identify a user, because there might be proxies in the middle.
	Remote   net.Addr
	response *Response
}

func NewRequest(cfg *config.Config, remote net.Addr) *Request {
	return &Request{
		Query:    kv.NewPrealloc(cfg.URI.QueryPrealloc, false),
		Headers:  kv.NewPrealloc(cfg.Headers.Prealloc, true),
		Params:   kv.NewPrealloc(cfg.URI.ParamsPrealloc, false),
		Remote:   remote,
		response: NewResponse(),
	}
}

// Respond returns Response object.
//
// WARNING: this method clears the response builder under the hood. As it is passed
// by reference, it'll be cleared EVERYWHERE along a handler
func (r *Request) Respond() *Response {
	return r.response.Clear()
}

// String returns the body as a string without copying.
func (r *Request) String() string {
	return uf.B2S(r.Body)
}

// JSON decodes the body into the model. Content-Type, if presented, must be application/json,
// otherwise status.ErrUnsupportedMediaType is returned.
func (r *Request) JSON(model any) error {
	if !mime.Complies(mime.JSON, r.Headers.Value("content-type")) {
		return status.ErrUnsupportedMediaType
	}

	if err := json.ConfigCompatibleWithStandardLibrary.Unmarshal(r.Body, model); err != nil {
		return status.NewError(status.BadRequest, "malformed JSON body: "+err.Error())
	}

	return nil
}
