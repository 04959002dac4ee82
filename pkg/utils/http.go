package utils

import (
	"fmt"
	"io"
)

// DrainAndClose discards what is left of rc so the transport can reuse the connection.
func DrainAndClose(rc io.ReadCloser) error {
	if rc == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, rc)
	return rc.Close()
}

// ReadAllAndClose reads at most limit bytes from rc and closes it.
// Bodies larger than limit are rejected instead of truncated.
func ReadAllAndClose(rc io.ReadCloser, limit int64) ([]byte, error) {
	if rc == nil {
		return nil, nil
	}
	bz, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if cerr := DrainAndClose(rc); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	if int64(len(bz)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return bz, nil
}
