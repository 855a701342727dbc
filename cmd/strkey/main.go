package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/stellar/go/strkey"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: strkey <G...|C...|hex> [account|contract]")
		os.Exit(1)
	}

	kind := "contract"
	if len(os.Args) > 2 {
		kind = os.Args[2]
	}

	out, err := convert(os.Args[1], kind)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

// convert decodes a G or C strkey to hex, or encodes 32 hex bytes as a
// strkey of the given kind
func convert(input, kind string) (string, error) {
	switch {
	case strings.HasPrefix(input, "G"):
		raw, err := strkey.Decode(strkey.VersionByteAccountID, input)
		if err != nil {
			return "", fmt.Errorf("decoding account strkey: %w", err)
		}
		return hex.EncodeToString(raw), nil
	case strings.HasPrefix(input, "C"):
		raw, err := strkey.Decode(strkey.VersionByteContract, input)
		if err != nil {
			return "", fmt.Errorf("decoding contract strkey: %w", err)
		}
		return hex.EncodeToString(raw), nil
	}

	raw, err := hex.DecodeString(input)
	if err != nil {
		return "", fmt.Errorf("input is neither a strkey nor hex: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}

	switch kind {
	case "contract":
		return strkey.Encode(strkey.VersionByteContract, raw)
	case "account":
		return strkey.Encode(strkey.VersionByteAccountID, raw)
	default:
		return "", fmt.Errorf("unknown strkey kind %q", kind)
	}
}
