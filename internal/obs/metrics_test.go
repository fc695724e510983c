package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                             "/",
		"/metrics":                     "/metrics",
		"/v1/accounts/0004123451":      "/v1/accounts/:number",
		"/v1/accounts/0004123451/freeze": "/v1/accounts/:number/freeze",
		"/v1/users/u-1/accounts":       "/v1/users/:id/accounts",
		"/v1/transactions/IABCDEFGH-1Z4": "/v1/transactions/:reference",
		"/v1/transactions?from_account=x": "/v1/transactions",
		"/v1/transfers":                "/v1/transfers",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
