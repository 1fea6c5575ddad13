// Package walletaddr is the address decoder external collaborator bound to
// a concrete implementation: Bitcoin-family address decode/validate,
// case-insensitive Ethereum-shape validation (which does not verify the
// EIP-55 checksum; ChecksumAddress applies that casing separately), and BIP32 xpub
// parsing with derivation-type discrimination and address-at-index
// derivation. Adapted from the teacher's internal/wallet package.
package walletaddr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"golang.org/x/crypto/sha3"
)

var ethereumAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// CheckEthereumAddress reports whether address matches the Ethereum
// address shape: "0x" + 40 hex characters, case-insensitive.
func CheckEthereumAddress(address string) bool {
	return ethereumAddressRegex.MatchString(address)
}

// CheckBitcoinAddress decodes address against Bitcoin mainnet or testnet
// parameters; it accepts either network the way a multi-network wallet
// store must.
func CheckBitcoinAddress(address string) bool {
	if _, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams); err == nil {
		return true
	}
	if _, err := btcutil.DecodeAddress(address, &chaincfg.TestNet3Params); err == nil {
		return true
	}
	return false
}

// CheckAddress accepts an address of either shape, ethereum or bitcoin,
// used where the caller doesn't know or care which chain family an
// address belongs to (e.g. the balance store, which is chain-agnostic).
func CheckAddress(address string) bool {
	return CheckEthereumAddress(address) || CheckBitcoinAddress(address)
}

// Keccak256 computes the Keccak-256 hash used by Ethereum checksums.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// ChecksumAddress applies EIP-55 checksum casing to a hex address (with or
// without "0x" prefix).
func ChecksumAddress(addr string) string {
	addr = strings.ToLower(strings.TrimPrefix(addr, "0x"))
	hash := hex.EncodeToString(Keccak256([]byte(addr)))

	var b strings.Builder
	b.WriteString("0x")
	for i, c := range addr {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
			continue
		}
		if hash[i] >= '8' {
			b.WriteString(strings.ToUpper(string(c)))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// DerivationType discriminates the address scheme an extended public key
// encodes, per its version-byte prefix (xpub/ypub/zpub family).
type DerivationType int

const (
	DerivationUnknown DerivationType = iota
	DerivationLegacy                 // xpub/tpub: BIP44, P2PKH
	DerivationP2SHSegwit              // ypub/upub: BIP49, P2WPKH-in-P2SH
	DerivationNativeSegwit            // zpub/vpub: BIP84, native P2WPKH (bech32)
)

var mainnetXPubVersion = [4]byte{0x04, 0x88, 0xb2, 0x1e} // xpub
var testnetXPubVersion = [4]byte{0x04, 0x35, 0x87, 0xcf} // tpub

// xpubPrefix reports the derivation type and network (testnet if true)
// implied by an extended public key's human-readable prefix.
func xpubPrefix(s string) (DerivationType, bool, bool) {
	if len(s) < 4 {
		return DerivationUnknown, false, false
	}
	switch s[:4] {
	case "xpub":
		return DerivationLegacy, false, true
	case "ypub":
		return DerivationP2SHSegwit, false, true
	case "zpub":
		return DerivationNativeSegwit, false, true
	case "tpub":
		return DerivationLegacy, true, true
	case "upub":
		return DerivationP2SHSegwit, true, true
	case "vpub":
		return DerivationNativeSegwit, true, true
	default:
		return DerivationUnknown, false, false
	}
}

// ParseXPub decodes an extended public key of any of the supported
// derivation-type prefixes (xpub/ypub/zpub and their testnet
// counterparts), rejecting any other prefix as unsupported. It works by
// rewriting the base58check version bytes to the standard xpub/tpub magic
// before handing the payload to hdkeychain, since hdkeychain only
// recognises the canonical BIP32 version bytes.
func ParseXPub(s string) (*hdkeychain.ExtendedKey, DerivationType, bool, error) {
	dtype, testnet, ok := xpubPrefix(s)
	if !ok {
		return nil, DerivationUnknown, false, fmt.Errorf("walletaddr: unsupported extended key prefix in %q", s)
	}

	standard, err := rewriteXPubVersion(s, testnet)
	if err != nil {
		return nil, DerivationUnknown, false, err
	}

	key, err := hdkeychain.NewKeyFromString(standard)
	if err != nil {
		return nil, DerivationUnknown, false, fmt.Errorf("walletaddr: parsing extended key: %w", err)
	}
	return key, dtype, testnet, nil
}

// IsXPub reports whether s parses as a supported extended public key,
// without returning the decoded key.
func IsXPub(s string) bool {
	_, _, _, err := ParseXPub(s)
	return err == nil
}

func rewriteXPubVersion(s string, testnet bool) (string, error) {
	raw := base58.Decode(s)
	if len(raw) != 82 {
		return "", fmt.Errorf("walletaddr: extended key %q has unexpected length %d", s, len(raw))
	}
	payload := make([]byte, 78)
	copy(payload, raw[:78])
	version := mainnetXPubVersion
	if testnet {
		version = testnetXPubVersion
	}
	copy(payload[0:4], version[:])

	sum := doubleSHA256(payload)[:4]
	full := append(payload, sum...)
	return base58.Encode(full), nil
}

func doubleSHA256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// DeriveAddressAtIndex derives the receive address at the given index from
// an extended public key, using the scheme implied by its derivation type:
// BIP44 legacy P2PKH for xpub/tpub, BIP49 P2WPKH-in-P2SH for ypub/upub,
// BIP84 native bech32 P2WPKH for zpub/vpub. The external (receive) chain
// is always used, matching an address-book enrichment use case rather than
// change-address bookkeeping.
func DeriveAddressAtIndex(xpubStr string, index uint32) (string, error) {
	key, dtype, testnet, err := ParseXPub(xpubStr)
	if err != nil {
		return "", err
	}

	external, err := key.Derive(0)
	if err != nil {
		return "", fmt.Errorf("walletaddr: deriving external chain: %w", err)
	}
	child, err := external.Derive(index)
	if err != nil {
		return "", fmt.Errorf("walletaddr: deriving index %d: %w", index, err)
	}
	pubKey, err := child.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("walletaddr: reading child public key: %w", err)
	}

	params := &chaincfg.MainNetParams
	if testnet {
		params = &chaincfg.TestNet3Params
	}

	switch dtype {
	case DerivationLegacy:
		return deriveP2PKH(pubKey, params)
	case DerivationP2SHSegwit:
		return deriveP2SHP2WPKH(pubKey, params)
	case DerivationNativeSegwit:
		return deriveP2WPKH(pubKey, params)
	default:
		return "", fmt.Errorf("walletaddr: unsupported derivation type for %q", xpubStr)
	}
}

func deriveP2PKH(pubKey *btcec.PublicKey, params *chaincfg.Params) (string, error) {
	hash := btcutil.Hash160(pubKey.SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(hash, params)
	if err != nil {
		return "", fmt.Errorf("walletaddr: P2PKH address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

func deriveP2WPKH(pubKey *btcec.PublicKey, params *chaincfg.Params) (string, error) {
	hash := btcutil.Hash160(pubKey.SerializeCompressed())
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, params)
	if err != nil {
		return "", fmt.Errorf("walletaddr: P2WPKH address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

func deriveP2SHP2WPKH(pubKey *btcec.PublicKey, params *chaincfg.Params) (string, error) {
	hash := btcutil.Hash160(pubKey.SerializeCompressed())
	witnessAddr, err := btcutil.NewAddressWitnessPubKeyHash(hash, params)
	if err != nil {
		return "", fmt.Errorf("walletaddr: witness address: %w", err)
	}
	witnessScript, err := txscript.PayToAddrScript(witnessAddr)
	if err != nil {
		return "", fmt.Errorf("walletaddr: witness script: %w", err)
	}
	scriptHash := btcutil.Hash160(witnessScript)
	addr, err := btcutil.NewAddressScriptHashFromHash(scriptHash, params)
	if err != nil {
		return "", fmt.Errorf("walletaddr: P2SH address: %w", err)
	}
	return addr.EncodeAddress(), nil
}
