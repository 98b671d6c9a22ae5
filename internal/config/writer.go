package config

import (
	"fmt"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// WriteSnapshot durably persists snap as YAML to path: an operator
// inspecting a running instance, or a post-crash restart, should be able
// to read back exactly the configuration last applied by a reload rather
// than whatever the on-disk config file currently says (the two can
// diverge once ENV overrides or a future reload are in play). renameio
// handles the temp-file-plus-fsync-plus-atomic-rename dance so a crash
// mid-write never leaves a partially written or missing file.
func WriteSnapshot(path string, snap Snapshot) error {
	data, err := yaml.Marshal(snapshotToFile(snap))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending snapshot file: %w", err)
	}
	defer pending.Cleanup() //nolint:errcheck // best-effort; CloseAtomicallyReplace already succeeded or failed below

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace snapshot file: %w", err)
	}
	return nil
}

// snapshotToFile projects a Snapshot back into the FileConfig shape so
// WriteSnapshot round-trips through the same tags mergeFile reads.
func snapshotToFile(snap Snapshot) FileConfig {
	return FileConfig{
		LogLevel:   snap.LogLevel,
		LogService: snap.LogService,
		Slideshow:  snap.Slideshow,
		DLS:        snap.DLS,
		Thai:       snap.Thai,
		Control:    snap.Control,
		Codec:      snap.Codec,
	}
}
