package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"

	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/platform"
)

// Well-known locations inside a macOS application bundle.
const (
	bundlePayloadPath = "Contents/Resources/app.nw"
	bundleIconPath    = "Contents/Resources/nw.icns"
	bundleCreditsPath = "Contents/Resources/Credits.html"
	bundlePlistPath   = "Contents/Info.plist"
)

// finishBundle ships the application inside the .app bundle: the payload
// goes under Resources as app.nw, either as a single archive file or as a
// directory of loose files, configured icon and credits replace the runtime
// defaults, and Info.plist is rewritten with the application identity.
func (b *Builder) finishBundle(ctx context.Context, state *platform.BuildState) error {
	root := filepath.Join(state.ReleaseDir, state.Files[0])
	payload := filepath.Join(root, filepath.FromSlash(bundlePayloadPath))

	if state.Archive != nil {
		if err := copyPath(state.Archive.Path, payload); err != nil {
			return fmt.Errorf("ship payload of %s: %w", state.Name(), err)
		}
	} else if err := b.copyAppFiles(state, payload); err != nil {
		return fmt.Errorf("copy application into bundle of %s: %w", state.Name(), err)
	}

	if b.cfg.MacIcns != "" {
		dst := filepath.Join(root, filepath.FromSlash(bundleIconPath))
		if err := copyPath(b.cfg.MacIcns, dst); err != nil {
			return fmt.Errorf("install bundle icon of %s: %w", state.Name(), err)
		}
	}

	if b.cfg.MacCredits != "" {
		dst := filepath.Join(root, filepath.FromSlash(bundleCreditsPath))
		if err := copyPath(b.cfg.MacCredits, dst); err != nil {
			return fmt.Errorf("install bundle credits of %s: %w", state.Name(), err)
		}
	}

	if err := b.writeBundlePlist(root); err != nil {
		return fmt.Errorf("write Info.plist of %s: %w", state.Name(), err)
	}

	logger.InfoKV(ctx, "Finished bundle", "platform", state.Name(), "bundle", root)

	return nil
}

// writeBundlePlist installs the bundle's Info.plist. A user-supplied plist
// is copied verbatim; otherwise the runtime's own Info.plist is decoded,
// patched with the application identity and encoded back.
func (b *Builder) writeBundlePlist(root string) error {
	target := filepath.Join(root, filepath.FromSlash(bundlePlistPath))

	if b.cfg.MacPlist != "" {
		return copyPath(b.cfg.MacPlist, target)
	}

	doc, err := decodePlist(target)
	if err != nil {
		return err
	}

	doc["CFBundleDisplayName"] = b.cfg.AppName
	doc["CFBundleName"] = b.cfg.AppName

	if b.cfg.AppVersion != "" {
		doc["CFBundleVersion"] = b.cfg.AppVersion
		doc["CFBundleShortVersionString"] = b.cfg.AppVersion
	}

	if copyright := b.listing.Manifest.Copyright; copyright != "" {
		doc["NSHumanReadableCopyright"] = copyright
	}

	return encodePlist(target, doc)
}

func decodePlist(path string) (map[string]any, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open runtime Info.plist: %w", err)
	}

	var doc map[string]any

	err = plist.NewDecoder(file).Decode(&doc)
	_ = file.Close()

	if err != nil {
		return nil, fmt.Errorf("decode runtime Info.plist: %w", err)
	}

	return doc, nil
}

func encodePlist(path string, doc map[string]any) error {
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create Info.plist: %w", err)
	}

	encoder := plist.NewEncoder(file)
	encoder.Indent("\t")

	if err := encoder.Encode(doc); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode Info.plist: %w", err)
	}

	return file.Close()
}
