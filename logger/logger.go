// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logger wires the per-subsystem loggers of the core together with
// a rotating file backend, the way the teacher's logger package wires
// btcd's subsystems.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jrick/logrotate/rotator"

	"github.com/theQRL/qrl-core-go/logs"
)

type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	if initiated {
		os.Stdout.Write(p)
		LogRotator.Write(p)
	}
	return len(p), nil
}

type errLogWriter struct{}

func (errLogWriter) Write(p []byte) (n int, err error) {
	if initiated {
		os.Stdout.Write(p)
		ErrLogRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem. A single backend logger is created and all
// subsystem loggers created from it write to the backend. Loggers must not
// be used before InitLogRotators has run.
var (
	backendLog = logs.NewBackend([]*logs.BackendWriter{
		logs.NewAllLevelsBackendWriter(logWriter{}),
		logs.NewErrorBackendWriter(errLogWriter{}),
	})

	// LogRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	LogRotator    *rotator.Rotator
	ErrLogRotator *rotator.Rotator

	chmgLog = backendLog.Logger(SubsystemTags.CHMG)
	astmLog = backendLog.Logger(SubsystemTags.ASTM)
	txplLog = backendLog.Logger(SubsystemTags.TXPL)
	powvLog = backendLog.Logger(SubsystemTags.POWV)
	minrLog = backendLog.Logger(SubsystemTags.MINR)
	gsspLog = backendLog.Logger(SubsystemTags.GSSP)
	peerLog = backendLog.Logger(SubsystemTags.PEER)
	storLog = backendLog.Logger(SubsystemTags.STOR)
	rpcsLog = backendLog.Logger(SubsystemTags.RPCS)
	nodeLog = backendLog.Logger(SubsystemTags.NODE)

	initiated = false
)

// SubsystemTags enumerates every subsystem identifier recognized by
// SetLogLevel/ParseAndSetDebugLevels.
var SubsystemTags = struct {
	CHMG,
	ASTM,
	TXPL,
	POWV,
	MINR,
	GSSP,
	PEER,
	STOR,
	RPCS,
	NODE string
}{
	CHMG: "CHMG",
	ASTM: "ASTM",
	TXPL: "TXPL",
	POWV: "POWV",
	MINR: "MINR",
	GSSP: "GSSP",
	PEER: "PEER",
	STOR: "STOR",
	RPCS: "RPCS",
	NODE: "NODE",
}

var subsystemLoggers = map[string]logs.Logger{
	SubsystemTags.CHMG: chmgLog,
	SubsystemTags.ASTM: astmLog,
	SubsystemTags.TXPL: txplLog,
	SubsystemTags.POWV: powvLog,
	SubsystemTags.MINR: minrLog,
	SubsystemTags.GSSP: gsspLog,
	SubsystemTags.PEER: peerLog,
	SubsystemTags.STOR: storLog,
	SubsystemTags.RPCS: rpcsLog,
	SubsystemTags.NODE: nodeLog,
}

// ChainManager, AddressState, TxPool, PowVerify, Miner, Gossip, Peer,
// Store, RPC and Node return the package-level logger for each subsystem.
// Packages call them directly at each log site (e.g. chain.Manager calls
// logger.ChainManager().Debugf); there are no per-package log.go shims.
func ChainManager() logs.Logger { return chmgLog }
func AddressState() logs.Logger { return astmLog }
func TxPool() logs.Logger       { return txplLog }
func PowVerify() logs.Logger    { return powvLog }
func Miner() logs.Logger        { return minrLog }
func Gossip() logs.Logger       { return gsspLog }
func Peer() logs.Logger         { return peerLog }
func Store() logs.Logger        { return storLog }
func RPC() logs.Logger          { return rpcsLog }
func Node() logs.Logger         { return nodeLog }

// InitLogRotators initializes the logging rotators to write logs to
// logFile and errLogFile. It must be called before the package-global log
// rotator variables are used.
func InitLogRotators(logFile, errLogFile string) {
	initiated = true
	LogRotator = initLogRotator(logFile)
	ErrLogRotator = initLogRotator(errLogFile)
}

func initLogRotator(logFile string) *rotator.Rotator {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %s\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %s\n", err)
		os.Exit(1)
	}
	return r
}

// SetLogLevel sets the logging level for the given subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, _ := logs.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets every subsystem logger to logLevel.
func SetLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// SupportedSubsystems returns a sorted list of the known subsystem tags.
func SupportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// ParseAndSetDebugLevels parses a debug-level specification of the form
// "info" or "CHMG=debug,PEER=trace" and applies it.
func ParseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if _, ok := logs.LevelFromString(debugLevel); !ok {
			return fmt.Errorf("the specified debug level [%s] is invalid", debugLevel)
		}
		SetLogLevels(debugLevel)
		return nil
	}

	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%s]", logLevelPair)
		}
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		if _, ok := subsystemLoggers[subsysID]; !ok {
			return fmt.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %s",
				subsysID, strings.Join(SupportedSubsystems(), ", "))
		}
		if _, ok := logs.LevelFromString(logLevel); !ok {
			return fmt.Errorf("the specified debug level [%s] is invalid", logLevel)
		}
		SetLogLevel(subsysID, logLevel)
	}
	return nil
}
