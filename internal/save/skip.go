package save

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eugenesvk/tabsave/internal/config"
	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/rules"
)

// DirSkipChecker checks the local saves directory for filename conflicts and
// applies the options' conflict action.
type DirSkipChecker struct{}

// CheckSkip implements SkipChecker.
func (DirSkipChecker) CheckSkip(filename string, opts *rules.Options) (SkipResult, error) {
	dest := filepath.Join(opts.SaveDir, filename)

	_, err := os.Stat(dest)
	if os.IsNotExist(err) {
		return SkipResult{Filename: filename}, nil
	}
	if err != nil {
		return SkipResult{}, errors.NewInternal(err)
	}

	switch opts.ConflictAction {
	case config.ConflictSkip:
		return SkipResult{Skipped: true, Filename: filename}, nil
	case config.ConflictOverwrite:
		return SkipResult{Filename: filename}, nil
	default:
		// uniquify
		unique, err := uniquify(opts.SaveDir, filename)
		if err != nil {
			return SkipResult{}, err
		}
		return SkipResult{Filename: unique}, nil
	}
}

// uniquify appends " (n)" before the extension until the name is free.
func uniquify(dir, filename string) (string, error) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for n := 1; n < 1000; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		_, err := os.Stat(filepath.Join(dir, candidate))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", errors.NewInternal(err)
		}
	}
	return "", errors.NewConflict(fmt.Sprintf("no free filename for %s", filename))
}
