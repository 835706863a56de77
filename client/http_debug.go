package client

import (
	"net/http"
	"net/http/httputil"
	"os"
	"regexp"

	"github.com/rs/zerolog/log"
)

// debugTransport logs every request and response at debug level.
//
// Enable it with WithDebugLogging or by setting FLEET_DEBUG=true or
// DEBUG=true. Bearer tokens are masked in the dumps; request and response
// bodies are not, so keep it out of production.
type debugTransport struct{ base http.RoundTripper }

var bearerPattern = regexp.MustCompile(`(?i)(authorization: bearer )\S+`)

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("request_id", req.Header.Get(HeaderRequestID)).
			Str("request_dump", maskBearer(reqDump)).
			Msg("HTTP request")
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status_code", resp.StatusCode).
			Str("response_dump", string(respDump)).
			Msg("HTTP response")
	}
	return resp, nil
}

func maskBearer(dump []byte) string {
	return bearerPattern.ReplaceAllString(string(dump), "${1}***")
}

// debugLoggingRequested reports whether FLEET_DEBUG=true or DEBUG=true is
// set in the environment.
func debugLoggingRequested() bool {
	return os.Getenv("FLEET_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
