package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide relay traffic counter.
var Stats = &stats{}

type stats struct {
	BytesSent     atomic.Int64 // cumulative bytes written to the relay link
	BytesRecv     atomic.Int64 // cumulative bytes read from the relay link
	PeersJoined   atomic.Int64 // cumulative multiplexed peer connects
	PeersLeft     atomic.Int64 // cumulative multiplexed peer disconnects
	Anomalies     atomic.Int64 // malformed frames and unrecognized wire tags
	DroppedEvents atomic.Int64 // inbound events lost to a full link queue
}

func (s *stats) AddSent(n int) { s.BytesSent.Add(int64(n)) }
func (s *stats) AddRecv(n int) { s.BytesRecv.Add(int64(n)) }
func (s *stats) AddPeer()      { s.PeersJoined.Add(1) }
func (s *stats) RemovePeer()   { s.PeersLeft.Add(1) }
func (s *stats) AddAnomaly()   { s.Anomalies.Add(1) }
func (s *stats) AddDropped()   { s.DroppedEvents.Add(1) }

func (s *stats) AnomalyCount() int64 { return s.Anomalies.Load() }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs relay statistics
// every 10 seconds. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevSent, prevRecv, prevJoined, prevLeft, prevAnom int64
		for {
			select {
			case <-ticker.C:
				joined := Stats.PeersJoined.Load()
				left := Stats.PeersLeft.Load()
				sent := Stats.BytesSent.Load()
				recv := Stats.BytesRecv.Load()

				anom := Stats.AnomalyCount()
				if d := anom - prevAnom; d > 0 {
					pterm.DefaultLogger.Warn(fmt.Sprintf("%d protocol anomalies in the last 10s (total %d)", d, anom))
				}
				prevAnom = anom

				outS := float64(sent-prevSent) / 10.0
				inS := float64(recv-prevRecv) / 10.0
				inP := joined - prevJoined
				outP := left - prevLeft

				if inP > 0 || outP > 0 || inS > 10 || outS > 10 {
					pterm.DefaultLogger.Info(formatStats(inS, outS, inP, outP))
				}

				prevSent = sent
				prevRecv = recv
				prevJoined = joined
				prevLeft = left

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats returns a formatted string of the current stats for display in the logger.
func formatStats(inS, outS float64, inP, outP int64) string {
	return fmt.Sprintf("In: %s/s | Out: %s/s | Peers: %2d↑ %2d↓",
		formatBytes(inS),
		formatBytes(outS),
		inP,
		outP,
	)
}
