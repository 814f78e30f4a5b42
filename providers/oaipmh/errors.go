package oaipmh

import (
	"errors"
	"fmt"
	"net/http"
)

// OAI-PMH Fehlercodes, die der Harvester unterscheidet.
const (
	CodeNoRecordsMatch          = "noRecordsMatch"
	CodeIDDoesNotExist          = "idDoesNotExist"
	CodeCannotDisseminateFormat = "cannotDisseminateFormat"
	CodeBadResumptionToken      = "badResumptionToken"
	CodeBadArgument             = "badArgument"
	// CodeBadResponse ist kein OAI-Code: die Antwort ließ sich nicht als OAI-PMH lesen.
	CodeBadResponse = "badResponse"
)

// HTTPError ist ein Transportfehler: entweder ist der Endpunkt nicht erreichbar (Err)
// oder er hat mit einem Status ungleich 200 geantwortet.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oai-pmh request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("oai-pmh request to %s failed: %s", e.URL, e.Status)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// ProtocolError ist ein <error code="..."> Element der OAI-PMH-Antwort oder eine
// Antwort, die sich nicht dekodieren ließ.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("OAI-PMH error (%s): %s", e.Code, e.Message)
}

// IsCode meldet, ob err ein ProtocolError mit dem gegebenen Code ist.
func IsCode(err error, code string) bool {
	var perr *ProtocolError
	return errors.As(err, &perr) && perr.Code == code
}
