package services

import (
	"errors"
	"fmt"

	"massbank-harvester/providers/oaipmh"
)

// Stufen der Pipeline.
const (
	StageGather = "Gather"
	StageFetch  = "Fetch"
	StageImport = "Import"
)

// ErrorKind klassifiziert Fehler einer Stufe.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindProtocol    ErrorKind = "protocol"
	KindDecode      ErrorKind = "decode"
	KindMapping     ErrorKind = "mapping"
	KindEnrichment  ErrorKind = "enrichment"
	KindPersistence ErrorKind = "persistence"
)

var (
	// ErrNoChemicalEntity: der Datensatz enthält keine chemische Entität.
	ErrNoChemicalEntity = errors.New("record has no chemical entity")
	// ErrNoContent: das HarvestObject hat (noch) keinen Inhalt.
	ErrNoContent = errors.New("harvest object has no content")
)

// StageError ist das Ergebnis einer fehlgeschlagenen Stufe für eine Einheit oder eine Quelle.
type StageError struct {
	Stage string
	Kind  ErrorKind
	GUID  string
	Err   error
}

func (e *StageError) Error() string {
	if e.GUID == "" {
		return fmt.Sprintf("%s stage failed (%s): %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s stage failed for %s (%s): %v", e.Stage, e.GUID, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// KindOf leitet die Fehlerart ab. Fehler des OAI-Clients werden nach Transport und
// Protokoll unterschieden.
func KindOf(err error) ErrorKind {
	var serr *StageError
	if errors.As(err, &serr) {
		return serr.Kind
	}
	var herr *oaipmh.HTTPError
	if errors.As(err, &herr) {
		return KindTransport
	}
	var perr *oaipmh.ProtocolError
	if errors.As(err, &perr) {
		return KindProtocol
	}
	return ""
}

func remoteKind(err error) ErrorKind {
	if k := KindOf(err); k != "" {
		return k
	}
	return KindTransport
}
