package localcask

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/runner"
)

// ErrReceipts reports a receipts archive that could not be extracted.
var ErrReceipts = errors.New("receipts extraction failed")

// ReceiptsPattern matches the receipts archive bundled inside an app.
const ReceiptsPattern = "*-receipts.zip"

// Receipts installs the installer receipts some private casks ship inside
// their application bundle.
type Receipts struct {
	runner          runner.Runner
	log             zerolog.Logger
	applicationsDir string
	receiptsDir     string
}

// NewReceipts creates a Receipts processor.
func NewReceipts(r runner.Runner, log zerolog.Logger, applicationsDir, receiptsDir string) *Receipts {
	return &Receipts{
		runner:          r,
		log:             log,
		applicationsDir: applicationsDir,
		receiptsDir:     receiptsDir,
	}
}

// Find returns the receipts archive inside the app, or "" when there is none.
func (p *Receipts) Find(appName string) string {
	matches, err := runner.Glob(filepath.Join(p.applicationsDir, appName), ReceiptsPattern)
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// Process unzips the app's receipts archive into the receipts directory.
// An app without an archive needs no processing.
func (p *Receipts) Process(appName string) error {
	zip := p.Find(appName)
	if zip == "" {
		return nil
	}

	p.log.Info().Str("archive", zip).Str("target", p.receiptsDir).Msg("Installing receipts")
	res := p.runner.Run([]string{"sudo", "unzip", zip, "-d", p.receiptsDir}, "")
	if !res.Success {
		if res.Stdout != "" {
			p.log.Info().Str("stdout", res.Stdout).Msg("unzip receipts results")
		}
		if res.Stderr != "" {
			p.log.Info().Str("stderr", res.Stderr).Msg("unzip receipts errors")
		}
		return fmt.Errorf("%w: %s: status %d", ErrReceipts, zip, res.StatusCode)
	}
	return nil
}
