package api

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// BaseUnitsToTokens renders a base-unit amount as whole tokens
// 1 FULA = 10^decimals base units
func BaseUnitsToTokens(units string, decimals uint32) (string, error) {
	if units == "" {
		return "0", nil
	}

	amount, ok := new(big.Int).SetString(units, 10)
	if !ok {
		return "", fmt.Errorf("invalid base units value: %q", units)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(amount, scale, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String(), nil
	}

	fracStr := new(big.Int).Abs(frac).String()
	if pad := int(decimals) - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	sign := ""
	if amount.Sign() < 0 && whole.Sign() == 0 {
		sign = "-"
	}
	return sign + whole.String() + "." + fracStr, nil
}

// parsePagination reads limit and offset, falling back to defaults on bad input.
// A limit above maxLimit is clamped to it.
func parsePagination(query url.Values) (limit, offset int) {
	limit = defaultLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = min(parsed, maxLimit)
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func (s *Server) parseRunID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	if raw == "" {
		s.sendError(w, "Run ID required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	runID, err := uuid.Parse(raw)
	if err != nil {
		s.sendError(w, "Invalid run ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return runID, true
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
