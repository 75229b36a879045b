// Command ertos-sim boots the kernel as a hosted simulation: no real board,
// a loopback UART in place of a physical console and a loopback Ethernet
// port that answers its own ARP/ICMP traffic, useful for exercising the
// scheduler, allocator, and network stack without hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/erenright/ertos/internal/bootconfig"
	"github.com/erenright/ertos/internal/eth"
	"github.com/erenright/ertos/internal/kernel"
	"github.com/erenright/ertos/internal/logging"
	"github.com/erenright/ertos/internal/simtest"
	"github.com/erenright/ertos/internal/wire"
)

func main() {
	var (
		heapStr  = flag.String("heap", "4M", "Heap arena size (e.g., 4M, 512K)")
		hz       = flag.Int("hz", 100, "Scheduler tick rate")
		ipStr    = flag.String("ip", "192.168.0.99", "Simulated interface IPv4 address")
		maskStr  = flag.String("netmask", "255.255.255.0", "Simulated interface netmask")
		noEth    = flag.Bool("no-eth", false, "Disable the simulated Ethernet interface")
		verbose  = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	heapSize, err := parseSize(*heapStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -heap %q: %v\n", *heapStr, err)
		os.Exit(1)
	}

	ip, err := parseIPv4(*ipStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -ip %q: %v\n", *ipStr, err)
		os.Exit(1)
	}
	mask, err := parseIPv4(*maskStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -netmask %q: %v\n", *maskStr, err)
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := bootconfig.Default()
	cfg.HZ = *hz
	cfg.HeapSize = int(heapSize)
	cfg.IP = ip
	cfg.Netmask = mask
	cfg.EnableEthernet = !*noEth
	cfg.PanicSync = func() {
		logger.Error("panic sync: flushing diagnostics before halt")
	}

	k := kernel.New(cfg, logger)

	uart := &simtest.LoopbackUART{}
	var ethOps eth.Ops
	if cfg.EnableEthernet {
		// Loopback: every transmitted frame is delivered straight back to
		// the same interface, so ARP/ICMP self-tests answer themselves
		// without a real wire.
		ethOps = simtest.NewLoopbackMAC(func(frame []byte) {
			if k.EthManager != nil {
				for _, iface := range k.EthManager.Interfaces() {
					if iface.DeliverRX(0, frame) == nil {
						k.EthManager.RXInterrupt(iface)
					}
				}
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := k.Boot(ctx, uart, ethOps); err != nil {
		logger.Error("boot failed", "error", err)
		os.Exit(1)
	}

	logger.Info("kernel booted",
		"hz", cfg.HZ,
		"heap_bytes", cfg.HeapSize,
		"ethernet", cfg.EnableEthernet,
		"mac", macString(cfg.MAC),
		"ip", ipString(cfg.IP),
	)
	fmt.Printf("ertos-sim running, HZ=%d heap=%s\n", cfg.HZ, formatSize(heapSize))
	fmt.Printf("Press Ctrl+C to stop...\n")
	fmt.Printf("Send SIGUSR1 (kill -USR1 %d) to dump goroutine stacks\n", os.Getpid())

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1024*1024)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE STACK DUMP ===\n%s\n=== END ===\n\n", buf[:n])

			filename := fmt.Sprintf("ertos-stacks-%d.txt", time.Now().Unix())
			if f, err := os.Create(filename); err == nil {
				fmt.Fprintf(f, "Process ID: %d\n\n", os.Getpid())
				f.Write(buf[:n])
				fmt.Fprintf(f, "\n\n=== GOROUTINE PROFILE ===\n")
				pprof.Lookup("goroutine").WriteTo(f, 2)
				f.Close()
				logger.Info("stack trace written to file", "file", filename)
			}
		}
	}()

	runDone := make(chan struct{})
	go func() {
		k.Run(ctx)
		close(runDone)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	cancel()

	select {
	case <-runDone:
	case <-time.After(1 * time.Second):
		logger.Info("shutdown timeout, forcing exit")
	}

	os.Exit(0)
}

func macString(m wire.MAC) string {
	parts := make([]string, len(m))
	for i, b := range m {
		parts[i] = strconv.FormatUint(uint64(b), 16)
	}
	return strings.Join(parts, ":")
}

func ipString(ip [4]byte) string {
	return net.IP(ip[:]).String()
}

func parseIPv4(s string) ([4]byte, error) {
	var out [4]byte
	parsed := net.ParseIP(s)
	if parsed == nil {
		return out, fmt.Errorf("not an IPv4 address")
	}
	v4 := parsed.To4()
	if v4 == nil {
		return out, fmt.Errorf("not an IPv4 address")
	}
	copy(out[:], v4)
	return out, nil
}

// parseSize parses a size string like "4M", "1G", "512K".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(s)

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "G")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}

// formatSize formats a byte count as a human-readable string.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
