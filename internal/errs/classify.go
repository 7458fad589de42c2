package errs

import "strings"

// Classification is the user-facing description of a failure. The GUI shows
// Title and Message verbatim and offers a retry action when Retryable is set.
type Classification struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable"`
}

type pattern struct {
	code      string
	title     string
	hint      string
	retryable bool
	needles   []string
}

// Order matters: expired tokens also mention "token", region errors mention
// "redirect", so the more specific needles come first.
var patterns = []pattern{
	{
		code:    "cancelled",
		title:   "Operation Cancelled",
		hint:    "The operation was stopped before it finished.",
		needles: []string{"operation aborted", "context canceled"},
	},
	{
		code:    "expired_credentials",
		title:   "Credentials Expired",
		hint:    "Refresh the session (for SSO run `aws sso login`) and try again.",
		needles: []string{"expiredtoken", "token has expired", "token is expired", "expired token", "requestexpired"},
	},
	{
		code:    "invalid_credentials",
		title:   "Invalid Credentials",
		hint:    "Check the access key pair configured for this profile.",
		needles: []string{"invalidaccesskeyid", "signaturedoesnotmatch", "invalid credentials", "no valid credentials", "requires source_profile", "requires account id", "failed to retrieve credentials", "no ec2 imds role found"},
	},
	{
		code:    "access_denied",
		title:   "Access Denied",
		hint:    "The active profile is not allowed to perform this action.",
		needles: []string{"accessdenied", "access denied", "forbidden", "permission_denied", "status code: 403"},
	},
	{
		code:    "region_mismatch",
		title:   "Wrong Region",
		hint:    "The bucket lives in a different region than the profile; set the region and retry.",
		needles: []string{"permanentredirect", "authorizationheadermalformed", "wrong region", "incorrectendpoint", "region mismatch"},
	},
	{
		code:    "not_found",
		title:   "Not Found",
		hint:    "The bucket or object no longer exists.",
		needles: []string{"nosuchbucket", "nosuchkey", "not found", "not_found", "status code: 404"},
	},
	{
		code:      "throttling",
		title:     "Too Many Requests",
		hint:      "The store is throttling requests; wait a moment and retry.",
		retryable: true,
		needles:   []string{"slowdown", "throttl", "toomanyrequests", "rate exceeded", "status code: 429"},
	},
	{
		code:      "service_unavailable",
		title:     "Service Unavailable",
		hint:      "The object store is temporarily unavailable; retry shortly.",
		retryable: true,
		needles:   []string{"serviceunavailable", "service unavailable", "internalerror", "[unavailable]", "status code: 503", "status code: 500"},
	},
	{
		code:      "network",
		title:     "Network Error",
		hint:      "Check the network connection and endpoint, then retry.",
		retryable: true,
		needles:   []string{"connection refused", "no such host", "dial tcp", "i/o timeout", "connection reset", "network is unreachable", "unexpected eof", "tls handshake", "deadline exceeded"},
	},
	{
		code:    "too_large",
		title:   "Too Large",
		hint:    "The object exceeds the size the store accepts for this request.",
		needles: []string{"entitytoolarge", "too large", "request entity too large", "maxmessagelengthexceeded"},
	},
}

var invalidInputPattern = pattern{
	code:  "invalid_input",
	title: "Invalid Request",
	hint:  "Check the bucket, key or arguments and try again.",
}

var compressPattern = pattern{
	code:  "compression_failed",
	title: "Compression Failed",
	hint:  "The content could not be gzip-encoded; nothing was uploaded.",
}

// codePatterns refines a mapped kind using the backend's error code.
var codePatterns = map[string]string{
	"ExpiredToken":                 "expired_credentials",
	"ExpiredTokenException":        "expired_credentials",
	"RequestExpired":               "expired_credentials",
	"InvalidToken":                 "expired_credentials",
	"InvalidAccessKeyId":           "invalid_credentials",
	"InvalidClientTokenId":         "invalid_credentials",
	"SignatureDoesNotMatch":        "invalid_credentials",
	"InvalidCredentials":           "invalid_credentials",
	"PermanentRedirect":            "region_mismatch",
	"AuthorizationHeaderMalformed": "region_mismatch",
	"IncorrectEndpoint":            "region_mismatch",
	"EntityTooLarge":               "too_large",
	"MaxMessageLengthExceeded":     "too_large",
}

// kindPatterns is the classification of each kind the drivers map.
var kindPatterns = map[ErrKind]string{
	ErrKindNotFound:         "not_found",
	ErrKindPermissionDenied: "access_denied",
	ErrKindThrottled:        "throttling",
	ErrKindUnavailable:      "service_unavailable",
	ErrKindTimeout:          "network",
	ErrKindConnectionFailed: "network",
}

func patternByCode(code string) pattern {
	for _, p := range patterns {
		if p.code == code {
			return p
		}
	}
	panic("errs: no pattern " + code)
}

var configPattern = pattern{
	code:  "invalid_credentials",
	title: "Profile Not Usable",
	hint:  "Fix the profile in ~/.aws/config or ~/.aws/credentials, or pick another profile.",
}

var decompressPattern = pattern{
	code:  "decompression_failed",
	title: "Decompression Failed",
	hint:  "The object is not valid gzip data; download it as binary instead.",
}

// Classify maps any error onto a Classification. Kinds set by the drivers
// decide first, refined by the backend error code; only errors of unknown
// kind or generic query failures are matched against their text, since the
// text carries user-chosen keys and paths. Unmatched errors fall back to a
// generic "Error" that is retryable.
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}
	msg := err.Error()
	kind := KindOf(err)

	switch kind {
	case ErrKindAborted:
		return build(patternByCode("cancelled"), msg)
	case ErrKindConfig:
		return build(configPattern, msg)
	case ErrKindDecompression:
		return build(decompressPattern, msg)
	case ErrKindCompression:
		return build(compressPattern, msg)
	}

	if code, ok := codePatterns[CodeOf(err)]; ok {
		return build(patternByCode(code), msg)
	}

	switch kind {
	case ErrKindUnknown, ErrKindQueryFailed:
	case ErrKindInvalidInput:
		return build(invalidInputPattern, msg)
	default:
		if code, ok := kindPatterns[kind]; ok {
			return build(patternByCode(code), msg)
		}
	}

	lower := strings.ToLower(msg)
	for _, p := range patterns {
		for _, n := range p.needles {
			if strings.Contains(lower, n) {
				return build(p, msg)
			}
		}
	}

	return Classification{
		Code:      "error",
		Title:     "Error",
		Message:   msg,
		Retryable: true,
	}
}

func build(p pattern, msg string) Classification {
	return Classification{
		Code:      p.code,
		Title:     p.title,
		Message:   msg,
		Hint:      p.hint,
		Retryable: p.retryable,
	}
}
