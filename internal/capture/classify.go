package capture

import (
	"encoding/json"
	"fmt"
)

// ClassifyMessage turns a gateway error payload into a display message. Bodies
// shaped like `[{"errorName":"InvalidCard","code":14040}]` become
// `Error: InvalidCard (Code: 14040)`; anything else passes through unchanged.
// Classification never fails: a parse error just keeps the raw message.
func ClassifyMessage(raw string) string {
	var entries []struct {
		ErrorName string      `json:"errorName"`
		Code      json.Number `json:"code"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil || len(entries) == 0 {
		return raw
	}
	return fmt.Sprintf("Error: %s (Code: %s)", entries[0].ErrorName, entries[0].Code)
}

// gatewayMessage digs the backend's message field out of an error body,
// falling back to the body itself.
func gatewayMessage(body string) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return body
}

// extractVaultedShopperID pulls a vaulted shopper id out of a capture response
// message. The gateway embeds it as JSON; a missing or unparsable message
// yields an empty id, never an error.
func extractVaultedShopperID(message string) string {
	var payload struct {
		VaultedShopperID json.Number `json:"vaultedShopperId"`
	}
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		return ""
	}
	return payload.VaultedShopperID.String()
}

// extractTransactionID pulls a transaction id out of a capture response
// message when the gateway embedded one.
func extractTransactionID(message string) string {
	var payload struct {
		TransactionID json.Number `json:"transactionId"`
	}
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		return ""
	}
	return payload.TransactionID.String()
}
