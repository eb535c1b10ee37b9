package cli

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
)

var (
	auditLogger     audit.Logger
	auditLoggerOnce sync.Once
)

// getAuditLogger returns the audit logger for this invocation (file or nop).
// The path is resolved in PersistentPreRunE: CLI > env > config.
func getAuditLogger() audit.Logger {
	auditLoggerOnce.Do(func() {
		path := effectiveAuditLogPath
		if path == "" {
			auditLogger = audit.NopLogger{}
			return
		}
		l, err := audit.NewFileLogger(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("audit log disabled")
			auditLogger = audit.NopLogger{}
			return
		}
		auditLogger = l
	})
	return auditLogger
}

func resetAuditLogger() {
	auditLoggerOnce = sync.Once{}
	auditLogger = nil
}

// auditLog writes one audit entry for an operation. rec may be nil when the
// operation failed before a record was available.
func auditLog(e audit.Entry, rec *escrow.Record, err error) {
	if e.Artifact != "" && e.ArtifactID == "" {
		e.ArtifactID = escrow.ArtifactID(e.Artifact)
	}
	if rec != nil {
		e.Commitment = rec.Commitment.String()
		e.Status = string(rec.Status)
	}
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	if lerr := getAuditLogger().Log(&e); lerr != nil {
		log.Warn().Err(lerr).Str("operation", e.Operation).Msg("audit entry not written")
	}
}
