package student

import (
	"net/url"
	"slices"
	"strings"
)

// DeriveFlow splits a complete prediction URL into its base and flow id.
// The path must contain a "prediction" segment followed by the id, e.g.
// https://host/api/v1/prediction/<id>; the base is scheme://host of the
// same URL. Registration and edit share this single implementation.
//
// A trailing slash after "prediction" yields an empty flow id without an
// error here; the caller's required-field check rejects it.
func DeriveFlow(completeURL string) (baseURL, flowID string, err error) {
	u, err := url.Parse(completeURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", ErrInvalidFlowURL
	}

	segments := strings.Split(u.Path, "/")
	idx := slices.Index(segments, "prediction")
	if idx == -1 || idx == len(segments)-1 {
		return "", "", ErrInvalidFlowURL
	}

	return u.Scheme + "://" + u.Host, segments[idx+1], nil
}
