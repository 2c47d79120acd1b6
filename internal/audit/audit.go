package audit

import (
	"fmt"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalWriter Writer = NopWriter{}
	enabled      bool
)

// Init installs w as the process-wide audit writer. A nil w disables
// auditing.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter, enabled = NopWriter{}, false
		return nil
	}
	globalWriter, enabled = w, true
	return nil
}

// InitFile installs a FileWriter for path. An empty path disables auditing.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Close closes the global writer and disables auditing.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter, enabled = NopWriter{}, false
	return err
}

// Enabled returns whether audit logging is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Log writes event to the global writer.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	return w.Write(event)
}

// MustLog writes event and wraps any failure so the caller can fail the
// audited operation with it.
//
//	if err := audit.MustLog(event); err != nil {
//	    return nil, err
//	}
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// LogParamsGenerated records generation of CAST5 parameters.
func LogParamsGenerated(keyLength int, success bool, reason string) error {
	event := NewEvent(EventParamsGenerated, ResultOf(success)).
		WithObject(Object{Type: "parameters"}).
		WithContext(Context{
			Algorithm: "CAST5",
			KeyLength: keyLength,
			Reason:    reason,
		})
	return MustLog(event)
}

// LogParamsConverted records conversion of parameters between encodings.
func LogParamsConverted(from, to string, size int, success bool, reason string) error {
	event := NewEvent(EventParamsConverted, ResultOf(success)).
		WithObject(Object{Type: "parameters", Size: size}).
		WithContext(Context{
			Algorithm:    "CAST5",
			Format:       from,
			TargetFormat: to,
			Reason:       reason,
		})
	return MustLog(event)
}

// LogOriginatorAssembled records assembly of an OriginatorInfo structure.
// A negative crls means the crls field is absent.
func LogOriginatorAssembled(path string, certs, crls int, success bool, reason string) error {
	ctx := Context{Certificates: certs, Reason: reason}
	if crls >= 0 {
		ctx.CRLs = &crls
	}
	event := NewEvent(EventOriginatorAssembled, ResultOf(success)).
		WithObject(Object{Type: "originator_info", Path: path}).
		WithContext(ctx)
	return MustLog(event)
}

// LogEnvelopeCreated records creation of an EnvelopedData message.
func LogEnvelopeCreated(path string, version int, success bool, reason string) error {
	event := NewEvent(EventEnvelopeCreated, ResultOf(success)).
		WithObject(Object{Type: "enveloped_data", Path: path}).
		WithContext(Context{Algorithm: "CAST5-CBC", Version: version, Reason: reason})
	return MustLog(event)
}

// LogEnvelopeOpened records decryption of an EnvelopedData message.
func LogEnvelopeOpened(path string, success bool, reason string) error {
	event := NewEvent(EventEnvelopeOpened, ResultOf(success)).
		WithObject(Object{Type: "enveloped_data", Path: path}).
		WithContext(Context{Algorithm: "CAST5-CBC", Reason: reason})
	return MustLog(event)
}
