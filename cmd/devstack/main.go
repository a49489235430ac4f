// Command devstack runs a local hoard development stack: a MinIO backend and
// the hoard server wired to it, with state tracked under .devstack so the
// stack survives across invocations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"
)

const (
	defaultRoot             = ".devstack"
	defaultServerPort       = 8080
	defaultMinioAPIPort     = 9000
	defaultMinioConsolePort = 9001
	defaultRegion           = "us-east-1"
	defaultAccessKey        = "minioadmin"
	defaultSecretKey        = "minioadmin"
	defaultInviteCode       = "dev-invite"
	defaultTokenSecret      = "dev-access-token-secret"
	stateFileName           = "state.json"
	shutdownGracePeriod     = 8 * time.Second
)

type stackState struct {
	Root    string      `json:"root"`
	Server  processInfo `json:"server"`
	Minio   processInfo `json:"minio"`
	Created time.Time   `json:"created"`
}

type processInfo struct {
	PID     int    `json:"pid"`
	Port    int    `json:"port"`
	LogPath string `json:"log_path"`
}

func main() {
	root := flag.String("root", defaultRoot, "devstack root directory")
	serverPort := flag.Int("server-port", defaultServerPort, "hoard server port")
	minioPort := flag.Int("minio-port", defaultMinioAPIPort, "minio API port")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "start"
	}

	absRoot, err := filepath.Abs(*root)
	if err != nil {
		fatal("resolve root: %v", err)
	}

	ctx := context.Background()
	switch cmd {
	case "start":
		err = startStack(ctx, absRoot, *serverPort, *minioPort)
	case "stop":
		err = stopStack(absRoot)
	case "status":
		err = statusStack(absRoot)
	case "prune":
		err = pruneStack(absRoot)
	default:
		err = fmt.Errorf("unknown command %q (want start|stop|status|prune)", cmd)
	}
	if err != nil {
		fatal("%v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "devstack: "+format+"\n", args...)
	os.Exit(1)
}

// ===================================================================================================

func startStack(ctx context.Context, root string, serverPort, minioPort int) error {
	if _, err := loadState(root); err == nil {
		return fmt.Errorf("stack already running, run `devstack stop` first")
	}

	for _, dir := range []string{"logs", "minio-data", "server-data", "bin"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return err
		}
	}

	minio, err := startMinio(root, minioPort)
	if err != nil {
		return err
	}
	fmt.Printf("minio up    pid=%d port=%d\n", minio.PID, minio.Port)

	if err := waitForS3(ctx, minioPort); err != nil {
		killProcess(minio.PID)
		return fmt.Errorf("minio never became ready: %w", err)
	}

	server, err := startServer(root, serverPort, minioPort)
	if err != nil {
		killProcess(minio.PID)
		return err
	}
	fmt.Printf("server up   pid=%d port=%d\n", server.PID, server.Port)

	if err := waitForHealthz(serverPort); err != nil {
		killProcess(server.PID)
		killProcess(minio.PID)
		return fmt.Errorf("server never became healthy: %w", err)
	}

	state := &stackState{
		Root:    root,
		Server:  server,
		Minio:   minio,
		Created: time.Now(),
	}
	if err := saveState(root, state); err != nil {
		return err
	}

	fmt.Printf("stack ready http://localhost:%d (signup invite code: %s)\n", serverPort, defaultInviteCode)
	return nil
}

func startMinio(root string, port int) (processInfo, error) {
	bin, err := exec.LookPath("minio")
	if err != nil {
		return processInfo{}, fmt.Errorf("minio binary not found in PATH: %w", err)
	}

	logPath := filepath.Join(root, "logs", "minio.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return processInfo{}, err
	}

	cmd := exec.Command(bin, "server",
		filepath.Join(root, "minio-data"),
		"--address", ":"+strconv.Itoa(port),
		"--console-address", ":"+strconv.Itoa(defaultMinioConsolePort),
	)
	cmd.Env = append(os.Environ(),
		"MINIO_ROOT_USER="+defaultAccessKey,
		"MINIO_ROOT_PASSWORD="+defaultSecretKey,
	)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return processInfo{}, fmt.Errorf("start minio: %w", err)
	}
	logFile.Close()

	return processInfo{PID: cmd.Process.Pid, Port: port, LogPath: logPath}, nil
}

func startServer(root string, port, minioPort int) (processInfo, error) {
	bin := filepath.Join(root, "bin", "hoard-server")
	build := exec.Command("go", "build", "-o", bin, "./cmd/server")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		return processInfo{}, fmt.Errorf("build server: %w", err)
	}

	configPath := filepath.Join(root, "hoard.yaml")
	if err := writeServerConfig(configPath, root, port, minioPort); err != nil {
		return processInfo{}, err
	}

	logPath := filepath.Join(root, "logs", "server.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return processInfo{}, err
	}

	cmd := exec.Command(bin, "--config", configPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return processInfo{}, fmt.Errorf("start server: %w", err)
	}
	logFile.Close()

	return processInfo{PID: cmd.Process.Pid, Port: port, LogPath: logPath}, nil
}

func writeServerConfig(path, root string, port, minioPort int) error {
	cfg := map[string]any{
		"http": map[string]any{
			"addr":     "127.0.0.1:" + strconv.Itoa(port),
			"base_url": "http://localhost:" + strconv.Itoa(port),
		},
		"db_path": filepath.Join(root, "server-data", "hoard.db"),
		"s3": map[string]any{
			"region":     defaultRegion,
			"endpoint":   "http://localhost:" + strconv.Itoa(minioPort),
			"access_key": defaultAccessKey,
			"secret_key": defaultSecretKey,
		},
		"storage": map[string]any{
			"bucket_suffix": "-hoard-dev",
		},
		"auth": map[string]any{
			"enabled":             true,
			"token_issuer":        "hoard-dev",
			"access_token_secret": defaultTokenSecret,
			"access_token_expiry": "24h",
		},
		"accounts": map[string]any{
			"signup_enabled": true,
			"invite_code":    defaultInviteCode,
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ===================================================================================================

func waitForS3(ctx context.Context, port int) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(defaultRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(defaultAccessKey, defaultSecretKey, ""),
		),
	)
	if err != nil {
		return err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("http://localhost:" + strconv.Itoa(port))
		o.UsePathStyle = true
	})

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err = client.ListBuckets(probeCtx, &s3.ListBucketsInput{})
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err
}

func waitForHealthz(port int) error {
	url := "http://localhost:" + strconv.Itoa(port) + "/healthz"
	deadline := time.Now().Add(30 * time.Second)

	var lastErr error
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			lastErr = fmt.Errorf("healthz status %d", resp.StatusCode)
		} else {
			lastErr = err
		}
		time.Sleep(500 * time.Millisecond)
	}
	return lastErr
}

func healthy(port int) bool {
	if !portOpen(port) {
		return false
	}
	resp, err := http.Get("http://localhost:" + strconv.Itoa(port) + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func portOpen(port int) bool {
	conn, err := net.DialTimeout("tcp", "localhost:"+strconv.Itoa(port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// ===================================================================================================

func stopStack(root string) error {
	state, err := loadState(root)
	if err != nil {
		return fmt.Errorf("no running stack at %s", root)
	}

	stopProcess("server", state.Server.PID)
	stopProcess("minio", state.Minio.PID)

	return os.Remove(filepath.Join(root, stateFileName))
}

func statusStack(root string) error {
	state, err := loadState(root)
	if err != nil {
		fmt.Println("stack: not running")
		return nil
	}

	fmt.Printf("stack:  created %s\n", state.Created.Format(time.RFC3339))
	fmt.Printf("minio:  pid=%d port=%d alive=%v log=%s\n",
		state.Minio.PID, state.Minio.Port, processAlive(state.Minio.PID), state.Minio.LogPath)
	fmt.Printf("server: pid=%d port=%d alive=%v healthy=%v log=%s\n",
		state.Server.PID, state.Server.Port, processAlive(state.Server.PID),
		healthy(state.Server.Port), state.Server.LogPath)
	return nil
}

func pruneStack(root string) error {
	if state, err := loadState(root); err == nil {
		stopProcess("server", state.Server.PID)
		stopProcess("minio", state.Minio.PID)
	}
	return os.RemoveAll(root)
}

// ===================================================================================================

func statePath(root string) string {
	return filepath.Join(root, stateFileName)
}

func loadState(root string) (*stackState, error) {
	data, err := os.ReadFile(statePath(root))
	if err != nil {
		return nil, err
	}
	var state stackState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if !processAlive(state.Server.PID) && !processAlive(state.Minio.PID) {
		return nil, errors.New("stale state, no live processes")
	}
	return &state, nil
}

func saveState(root string, state *stackState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(statePath(root), data, 0o644)
}
