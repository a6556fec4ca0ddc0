// Package fetch downloads a CIDR range database from IP2Location so that it
// can be fed to the sync command.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/mholt/archives"

	"fwsync/rules"
)

// ErrEmptyDownload is returned when the server answers with no content.
const ErrEmptyDownload = errors.Sentinel("download returned an empty body")

// ErrNoRanges is returned when the payload holds no valid CIDR line. The
// service reports a bad token or an exhausted quota this way with status 200.
const ErrNoRanges = errors.Sentinel("download contains no valid CIDR lines")

// Result describes a completed download.
type Result struct {
	Path   string
	Bytes  int
	Member string // file taken from a zip payload, empty for plain text
	Ranges int    // valid CIDR lines in the written file
}

// Fetcher downloads an IP2Location range database over HTTP.
type Fetcher struct {
	Client   *http.Client
	URL      string
	Token    string
	Database string
	Retries  uint64

	// BackOff returns the retry schedule; nil means exponential.
	BackOff func() backoff.BackOff
}

func (f *Fetcher) downloadURL() (string, error) {
	u, err := url.Parse(f.URL)
	if err != nil {
		return "", errors.Wrap(err, "invalid download url")
	}
	q := u.Query()
	if f.Token != "" {
		q.Set("token", f.Token)
	}
	if f.Database != "" {
		q.Set("file", f.Database)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch downloads the database and writes the CIDR list to dst.
func (f *Fetcher) Fetch(ctx context.Context, dst string) (*Result, error) {
	if f.Token == "" || f.Database == "" {
		return nil, errors.New("a download token and database code are required")
	}
	target, err := f.downloadURL()
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"database": f.Database, "output": dst})
	logger.Info("downloading range database")

	data, err := f.download(ctx, target, logger)
	if err != nil {
		return nil, err
	}

	res := &Result{Path: dst}
	if mimetype.Detect(data).Is("application/zip") {
		name, content, err := extractLargest(ctx, data)
		if err != nil {
			return nil, err
		}
		logger.WithField("member", name).Debug("extracted archive member")
		res.Member = name
		data = content
	}

	scan, err := rules.ScanSourceRanges(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan downloaded ranges")
	}
	if len(scan.Ranges) == 0 {
		return nil, errors.Wrapf(ErrNoRanges, "payload starts with %q", head(data))
	}

	if err := writeAtomic(dst, data); err != nil {
		return nil, err
	}
	res.Bytes = len(data)
	res.Ranges = len(scan.Ranges)
	return res, nil
}

func (f *Fetcher) download(ctx context.Context, target string, logger log.Interface) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	var data []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := errors.Errorf("unexpected status %s", resp.Status)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			return backoff.Permanent(ErrEmptyDownload)
		}
		data = body
		return nil
	}

	notify := func(err error, next time.Duration) {
		logger.WithError(err).WithField("retry_in", next).Warn("download failed, retrying")
	}
	if err := backoff.RetryNotify(op, f.schedule(ctx), notify); err != nil {
		return nil, errors.Wrap(err, "failed to download range database")
	}
	return data, nil
}

func (f *Fetcher) schedule(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if f.BackOff != nil {
		b = f.BackOff()
	} else {
		b = backoff.NewExponentialBackOff()
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, f.Retries), ctx)
}

// extractLargest returns the biggest regular file of a zip archive. The
// range list ships next to small licence and readme files.
func extractLargest(ctx context.Context, data []byte) (string, []byte, error) {
	var name string
	var content []byte
	handler := func(ctx context.Context, info archives.FileInfo) error {
		if info.IsDir() || info.Size() <= int64(len(content)) {
			return nil
		}
		rc, err := info.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		name, content = info.NameInArchive, b
		return nil
	}
	if err := (archives.Zip{}).Extract(ctx, bytes.NewReader(data), handler); err != nil {
		return "", nil, errors.Wrap(err, "failed to extract zip payload")
	}
	if name == "" {
		return "", nil, errors.New("zip payload contains no files")
	}
	return name, content, nil
}

// head returns the start of a payload for error reports.
func head(data []byte) string {
	const n = 64
	s := string(bytes.TrimSpace(data))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func writeAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write temporary file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temporary file")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(err, "failed to set file mode")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return errors.Wrapf(err, "failed to move download to %s", dst)
	}
	return nil
}
