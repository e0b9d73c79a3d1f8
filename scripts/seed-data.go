//go:build ignore
// +build ignore

// Seeds demo transactions and a profile through the running server.
// The backend must be started with SKIP_AUTH=true (or pass AUTH_TOKEN).
//
//	go run scripts/seed-data.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"connectrpc.com/connect"

	"github.com/verdantapp/backend/internal/service"
)

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8111"
	}
	userID := os.Getenv("USER_ID")
	if userID == "" {
		userID = "local-dev-user"
	}
	authToken := os.Getenv("AUTH_TOKEN")

	log.Printf("seeding data for user %s via %s", userID, apiURL)

	opts := []connect.ClientOption{service.WithJSONCodec()}
	opts = append(opts, connect.WithInterceptors(headersInterceptor(authToken, userID)))
	if authToken == "" {
		log.Println("no AUTH_TOKEN provided - backend must be running with SKIP_AUTH=true")
	}

	httpClient := &http.Client{}
	ctx := context.Background()

	profileClient := connect.NewClient[service.UpdateProfileRequest, service.UpdateProfileResponse](
		httpClient, apiURL+service.ProcedureUpdateProfile, opts...)
	addClient := connect.NewClient[service.AddTransactionRequest, service.AddTransactionResponse](
		httpClient, apiURL+service.ProcedureAddTransaction, opts...)

	name := "Demo User"
	balance := 45000.0
	tz := "Asia/Kolkata"
	if _, err := profileClient.CallUnary(ctx, connect.NewRequest(&service.UpdateProfileRequest{
		DisplayName: &name, Balance: &balance, Timezone: &tz,
	})); err != nil {
		log.Fatalf("seed profile: %v", err)
	}

	seeds := []service.AddTransactionRequest{
		{Description: "Grocery run", Amount: 2350.75, Date: "2026-08-20", Category: "Groceries"},
		{Description: "Metro card top-up", Amount: 500, Date: "2026-08-21", Category: "Transport"},
		{Description: "Dinner with friends", Amount: 1800, Date: "2026-08-22", Category: "Dining"},
		{Description: "Streaming subscription", Amount: 649, Date: "2026-08-23", Category: "Entertainment"},
		{Description: "Electricity bill", Amount: 3120.40, Date: "2026-08-24", Category: "Utilities"},
		{Description: "Coffee", Amount: 280, Date: "2026-08-25", Category: "Dining"},
	}
	for _, tx := range seeds {
		resp, err := addClient.CallUnary(ctx, connect.NewRequest(&tx))
		if err != nil {
			log.Fatalf("seed transaction %q: %v", tx.Description, err)
		}
		log.Printf("added %q, balance now %.2f", tx.Description, resp.Msg.NewBalance)
	}

	fmt.Println("done")
}

func headersInterceptor(authToken, userID string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if authToken != "" {
				req.Header().Set("Authorization", "Bearer "+authToken)
			} else {
				req.Header().Set("X-Debug-Impersonate-User", userID)
			}
			return next(ctx, req)
		}
	}
}
