package qrcode

import (
	"fmt"
	"os"
	"path/filepath"

	qrc "github.com/skip2/go-qrcode"
)

// Issuer generates the unique pickup credential for a shipment: a token
// of the form QR-<shipmentID> and a scannable PNG artifact keyed by the
// shipment id. Tokens are deterministic, so concurrent calls for the same
// shipment converge on the same value; the storage-level unique index on
// the token is the backstop against double-issue races.
type Issuer struct {
	dir string
}

// NewIssuer creates an issuer writing artifacts into dir. The directory
// is created lazily on first use.
func NewIssuer(dir string) *Issuer {
	return &Issuer{dir: dir}
}

// Token returns the pickup token for a shipment id.
func (i *Issuer) Token(shipmentID string) string {
	return "QR-" + shipmentID
}

// ImagePath returns the public path of the artifact, relative to the
// server root (served under /uploads).
func (i *Issuer) ImagePath(shipmentID string) string {
	return filepath.ToSlash(filepath.Join("uploads", shipmentID+".png"))
}

// Ensure makes sure the shipment's token and image artifact exist.
// It is idempotent: when the recorded token and image are both present
// and the backing file still exists on disk, nothing happens. It returns
// the token and public image path, and whether anything was (re)generated.
func (i *Issuer) Ensure(shipmentID string, currentToken, currentImage *string) (token, imagePath string, generated bool, err error) {
	token = i.Token(shipmentID)
	imagePath = i.ImagePath(shipmentID)
	file := filepath.Join(i.dir, shipmentID+".png")

	if currentToken != nil && *currentToken != "" &&
		currentImage != nil && *currentImage != "" {
		if _, statErr := os.Stat(file); statErr == nil {
			return *currentToken, *currentImage, false, nil
		}
	}

	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return "", "", false, fmt.Errorf("qrcode: create dir: %w", err)
	}
	if err := qrc.WriteFile(token, qrc.Medium, 256, file); err != nil {
		return "", "", false, fmt.Errorf("qrcode: write image: %w", err)
	}
	return token, imagePath, true, nil
}
