// smoke runs an end-to-end check against a running gateway: issue a token,
// open two accounts, move money between them and verify conservation.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func main() {
	base := os.Getenv("COREBANK_GATEWAY_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	clientID := os.Getenv("COREBANK_SMOKE_CLIENT_ID")
	clientSecret := os.Getenv("COREBANK_SMOKE_CLIENT_SECRET")
	if clientID == "" {
		log.Fatal("COREBANK_SMOKE_CLIENT_ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hc := &http.Client{Timeout: 10 * time.Second}

	token, err := issueToken(ctx, hc, base, clientID, clientSecret)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	accA, err := createAccount(ctx, hc, base, token, "smoke-user", 1_000)
	if err != nil {
		log.Fatalf("create account A: %v", err)
	}
	accB, err := createAccount(ctx, hc, base, token, "smoke-user", 0)
	if err != nil {
		log.Fatalf("create account B: %v", err)
	}

	transferAmt := int64(420)
	if err := transfer(ctx, hc, base, token, accA, accB, transferAmt); err != nil {
		log.Fatalf("transfer: %v", err)
	}

	balA, err := balance(ctx, hc, base, token, accA)
	if err != nil {
		log.Fatalf("balance A: %v", err)
	}
	balB, err := balance(ctx, hc, base, token, accB)
	if err != nil {
		log.Fatalf("balance B: %v", err)
	}

	if balA+balB != 1_000 {
		log.Fatalf("conservation failed: %d + %d", balA, balB)
	}
	if balA != 1_000-transferAmt || balB != transferAmt {
		log.Fatalf("unexpected balances: A=%d B=%d", balA, balB)
	}

	fmt.Printf("gateway smoke test passed: accounts=%s,%s\n", accA, accB)
}

func issueToken(ctx context.Context, hc *http.Client, base, id, secret string) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(id, secret)

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := do(hc, req, &payload); err != nil {
		return "", err
	}
	return payload.AccessToken, nil
}

func createAccount(ctx context.Context, hc *http.Client, base, token, userID string, opening int64) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"user_id":         userID,
		"account_type":    "SAVINGS",
		"currency":        "KES",
		"initial_deposit": opening,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/accounts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var acc struct {
		Number string `json:"account_number"`
	}
	if err := do(hc, req, &acc); err != nil {
		return "", err
	}
	return acc.Number, nil
}

func transfer(ctx context.Context, hc *http.Client, base, token, from, to string, amount int64) error {
	body, _ := json.Marshal(map[string]any{
		"from_account": from,
		"to_account":   to,
		"amount":       amount,
		"currency":     "KES",
		"description":  "smoke transfer",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return do(hc, req, &struct{}{})
}

func balance(ctx context.Context, hc *http.Client, base, token, number string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/accounts/"+number, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var acc struct {
		CurrentBalance int64 `json:"current_balance"`
	}
	if err := do(hc, req, &acc); err != nil {
		return 0, err
	}
	return acc.CurrentBalance, nil
}

func do(hc *http.Client, req *http.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
