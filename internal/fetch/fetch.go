// Package fetch downloads rotated web-server access logs from the hosting
// provider over SFTP. It tracks already-downloaded files by name so repeated
// runs only transfer new rotations.
package fetch

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"ai-bot-analyzer/internal/config"
)

// Rotated logs are named access.log-YYYY-MM-DD-<rotation timestamp>
var filenamePattern = regexp.MustCompile(`^access\.log-(\d{4})-(\d{2})-(\d{2})-\d+$`)

// compressedExtensions lists archive suffixes that are never downloaded
var compressedExtensions = []string{".gz", ".zip", ".bz2", ".xz", ".7z", ".tar"}

// ParseLogFilenameDate extracts the date from a rotated log filename.
// Returns false if the name does not match the rotation pattern or encodes
// an impossible date.
func ParseLogFilenameDate(name string) (time.Time, bool) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components (e.g. month 13 becomes
	// January of the next year); a changed date means the name was bogus.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// isValidLogFile rejects compressed archives that sometimes sit alongside
// the plain rotations
func isValidLogFile(name string) bool {
	suffix := strings.ToLower(path.Ext(name))
	for _, ext := range compressedExtensions {
		if suffix == ext {
			return false
		}
	}
	return true
}

// remoteFile pairs a rotation filename with its parsed date
type remoteFile struct {
	name string
	date time.Time
}

// Client wraps an SFTP session for one fetch run
type Client struct {
	ssh  *ssh.Client
	sftp *sftp.Client
	log  *zap.SugaredLogger
}

// Connect establishes the SSH and SFTP sessions described by cfg
func Connect(cfg config.SFTPConfig, log *zap.SugaredLogger) (*Client, error) {
	var auth []ssh.AuthMethod
	if cfg.KeyFile != "" {
		keyData, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no SFTP credentials configured: set sftp.password or sftp.key_file")
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}
	addr := fmt.Sprintf("%s:%d", cfg.Hostname, port)

	log.Infof("connecting to %s...", cfg.Hostname)
	sshClient, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to open SFTP session: %w", err)
	}

	log.Info("SFTP connection established")
	return &Client{ssh: sshClient, sftp: sftpClient, log: log}, nil
}

// Close tears down the SFTP and SSH sessions
func (c *Client) Close() {
	c.sftp.Close()
	c.ssh.Close()
	c.log.Info("SFTP connection closed")
}

// Run lists the remote log directory, filters the rotations worth fetching
// and downloads them into localDir. Per-file failures are logged and skipped;
// the returned slice names the files that transferred successfully.
func (c *Client) Run(remoteDir, localDir string) ([]string, error) {
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local directory %s: %w", localDir, err)
	}

	available, err := c.listRemoteLogs(remoteDir)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		c.log.Warn("no access log files found matching the expected pattern")
		return nil, nil
	}

	toDownload := filterFiles(available, existingRawFiles(localDir), time.Now().UTC(), c.log)
	if len(toDownload) == 0 {
		c.log.Info("no new files to download")
		return nil, nil
	}

	var downloaded []string
	for _, rf := range toDownload {
		if err := c.download(remoteDir, rf.name, localDir); err != nil {
			c.log.Errorf("failed to download %s: %v", rf.name, err)
			continue
		}
		downloaded = append(downloaded, rf.name)
	}

	c.log.Infof("download summary: %d found, %d eligible, %d downloaded",
		len(available), len(toDownload), len(downloaded))
	return downloaded, nil
}

// listRemoteLogs returns the rotated log files present in remoteDir
func (c *Client) listRemoteLogs(remoteDir string) ([]remoteFile, error) {
	c.log.Infof("listing files in remote directory: %s", remoteDir)

	entries, err := c.sftp.ReadDir(remoteDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote directory %s: %w", remoteDir, err)
	}

	var files []remoteFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := ParseLogFilenameDate(entry.Name())
		if !ok {
			continue
		}
		c.log.Debugf("found log file: %s (date: %s)", entry.Name(), date.Format("2006-01-02"))
		files = append(files, remoteFile{name: entry.Name(), date: date})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	c.log.Infof("found %d access log files", len(files))
	return files, nil
}

// filterFiles keeps rotations that are complete (dated before today), not
// compressed, and not already present locally
func filterFiles(files []remoteFile, existing map[string]bool, now time.Time, log *zap.SugaredLogger) []remoteFile {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var out []remoteFile
	for _, rf := range files {
		if !isValidLogFile(rf.name) {
			log.Debugf("skipping %s: not a plain log file", rf.name)
			continue
		}
		if !rf.date.Before(today) {
			log.Debugf("skipping %s: rotation date %s is not before today", rf.name, rf.date.Format("2006-01-02"))
			continue
		}
		if existing[rf.name] {
			log.Debugf("skipping %s: already downloaded", rf.name)
			continue
		}
		out = append(out, rf)
	}

	log.Infof("files to download: %d", len(out))
	return out
}

// existingRawFiles names the access logs already present in localDir
func existingRawFiles(localDir string) map[string]bool {
	existing := make(map[string]bool)
	matches, err := filepath.Glob(filepath.Join(localDir, config.RawLogPattern))
	if err != nil {
		return existing
	}
	for _, m := range matches {
		existing[filepath.Base(m)] = true
	}
	return existing
}

// download copies one remote file into localDir under its original name
func (c *Client) download(remoteDir, name, localDir string) error {
	remotePath := path.Join(remoteDir, name)
	localPath := filepath.Join(localDir, name)

	stat, err := c.sftp.Stat(remotePath)
	if err != nil {
		return fmt.Errorf("remote file not found: %w", err)
	}
	c.log.Infof("downloading %s (%.2f MB)...", name, float64(stat.Size())/(1024*1024))

	src, err := c.sftp.Open(remotePath)
	if err != nil {
		return fmt.Errorf("failed to open remote file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(localPath)
		return fmt.Errorf("transfer failed: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to finish local file: %w", err)
	}

	c.log.Infof("downloaded %s", name)
	return nil
}
