package sparql

import (
	"context"
	"fmt"
	"mime"
	"net"
	"strings"
	"time"

	"github.com/teranos/skosprobe/errors"
)

const (
	maxDetailBytes = 512

	corsHint = "The browser blocked the request. Enable CORS on the endpoint or route it through a proxy."
	authHint = "Check the endpoint credentials."
)

// statusError maps a non-2xx HTTP status to a classified error.
func statusError(status int, body []byte) *errors.AppError {
	var appErr *errors.AppError
	switch {
	case status == 400:
		appErr = errors.NewAppError(errors.CodeQueryError, "The endpoint rejected the query")
	case status == 401:
		appErr = errors.NewAppError(errors.CodeAuthRequired, "Authentication required").WithHint(authHint)
	case status == 403:
		appErr = errors.NewAppError(errors.CodeAuthFailed, "Access denied").WithHint(authHint)
	case status == 404:
		appErr = errors.NewAppError(errors.CodeNotFound, "SPARQL endpoint not found")
	case status == 408:
		appErr = errors.NewAppError(errors.CodeTimeout, "The endpoint timed out processing the query")
	case status >= 500:
		appErr = errors.NewAppError(errors.CodeServerError, "The SPARQL endpoint returned a server error")
	default:
		appErr = errors.NewAppErrorf(errors.CodeUnknown, "Unexpected HTTP status %d", status)
	}
	return appErr.WithDetails(statusDetails(status, body))
}

func statusDetails(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxDetailBytes {
		text = text[:maxDetailBytes] + "..."
	}
	if text == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	return fmt.Sprintf("HTTP %d: %s", status, text)
}

// transportError classifies a failure that produced no HTTP response.
// attemptCtx is the per-attempt context whose deadline is the query timeout.
func transportError(err error, attemptCtx context.Context, timeout time.Duration) *errors.AppError {
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err) {
		return errors.NewAppErrorf(errors.CodeTimeout, "Query timed out after %s", timeout).
			WithDetails(err.Error()).
			WithCause(err)
	}
	if isCORS(err) {
		return errors.NewAppError(errors.CodeCORSBlocked, "Request blocked by cross-origin policy").
			WithDetails(err.Error()).
			WithHint(corsHint).
			WithCause(err)
	}
	return errors.NewAppError(errors.CodeNetworkError, "Could not reach the SPARQL endpoint").
		WithDetails(err.Error()).
		WithCause(err)
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isCORS recognizes the messages a browser fetch (GOOS=js) reports when a
// cross-origin request is refused.
func isCORS(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "cors") ||
		strings.Contains(msg, "cross-origin") ||
		strings.Contains(msg, "failed to fetch")
}

func invalidResponse(message, details string, cause error) *errors.AppError {
	appErr := errors.NewAppError(errors.CodeInvalidResponse, message).WithDetails(details)
	if cause != nil {
		appErr = appErr.WithCause(cause)
	}
	return appErr
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mt
}

// decodeResults picks a decoder from the response media type. Bodies without
// a content type are sniffed.
func decodeResults(contentType string, body []byte, acceptXML bool) (*Result, error) {
	mt := mediaType(contentType)

	syntax := ""
	switch {
	case strings.Contains(mt, "json"):
		syntax = "json"
	case acceptXML && strings.Contains(mt, "xml"):
		syntax = "xml"
	case mt == "":
		syntax = sniff(body)
		if syntax == "xml" && !acceptXML {
			syntax = ""
		}
	}

	switch syntax {
	case "json":
		result, err := DecodeJSON(body)
		if err != nil {
			return nil, invalidResponse("The endpoint returned malformed SPARQL results", err.Error(), err)
		}
		return result, nil
	case "xml":
		result, err := DecodeXML(body)
		if err != nil {
			return nil, invalidResponse("The endpoint returned malformed SPARQL results", err.Error(), err)
		}
		return result, nil
	}

	details := fmt.Sprintf("content-type %q", contentType)
	if strings.Contains(mt, "html") {
		return nil, invalidResponse("Expected SPARQL results but the endpoint returned an HTML page", details, nil).
			WithHint("The URL may point at a web page rather than a SPARQL endpoint.")
	}
	return nil, invalidResponse("Expected SPARQL results but the endpoint returned another format", details, nil)
}

// finalError turns whatever retry.Do returned into the AppError callers see.
func finalError(ctx context.Context, err error) *errors.AppError {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return errors.NewAppError(errors.CodeTimeout, "Request timed out").WithDetails(ctxErr.Error()).WithCause(ctxErr)
		}
		return errors.NewAppError(errors.CodeUnknown, "Request was cancelled").WithDetails(ctxErr.Error()).WithCause(ctxErr)
	}
	return errors.ToAppError(err)
}

// rateLimitError classifies a failed limiter wait. rate.Limiter refuses up
// front when the next token lies past the context deadline.
func rateLimitError(ctx context.Context, err error) *errors.AppError {
	cause := errors.WithSecondaryError(errRateLimitDeadline, err)
	code := errors.CodeUnknown
	if _, ok := ctx.Deadline(); ok {
		code = errors.CodeTimeout
	}
	return errors.NewAppError(code, "Rate limit leaves no time for the request").
		WithDetails(err.Error()).
		WithCause(cause)
}
