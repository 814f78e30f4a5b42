package oaipmh

import (
	"encoding/xml"
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Namespace des OAI-PMH 2.0 Envelopes.
const NamespaceOAI = "http://www.openarchives.org/OAI/2.0/"

// Response ist der OAI-PMH Envelope. Es ist immer höchstens eine Nutzlast gesetzt.
type Response struct {
	XMLName      xml.Name `xml:"OAI-PMH"`
	ResponseDate string   `xml:"responseDate"`

	Error           *responseError   `xml:"error"`
	Identify        *Identify        `xml:"Identify"`
	ListIdentifiers *listIdentifiers `xml:"ListIdentifiers"`
	GetRecord       *getRecord       `xml:"GetRecord"`
}

type responseError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// Identify beschreibt das entfernte Repository.
type Identify struct {
	RepositoryName    string `xml:"repositoryName"`
	BaseURL           string `xml:"baseURL"`
	ProtocolVersion   string `xml:"protocolVersion"`
	AdminEmail        string `xml:"adminEmail"`
	EarliestDatestamp string `xml:"earliestDatestamp"`
	DeletedRecord     string `xml:"deletedRecord"`
	Granularity       string `xml:"granularity"`
}

type listIdentifiers struct {
	Headers         []Header        `xml:"header"`
	ResumptionToken resumptionToken `xml:"resumptionToken"`
}

type resumptionToken struct {
	Token            string `xml:",chardata"`
	CompleteListSize string `xml:"completeListSize,attr"`
	Cursor           string `xml:"cursor,attr"`
}

type getRecord struct {
	Record rawRecord `xml:"record"`
}

type rawRecord struct {
	Header   Header `xml:"header"`
	Metadata struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"metadata"`
}

// Header ist der Kopf eines OAI-PMH-Datensatzes.
type Header struct {
	Identifier string   `xml:"identifier"`
	Datestamp  string   `xml:"datestamp"`
	SetSpec    []string `xml:"setSpec"`
	Status     string   `xml:"status,attr"`
}

// Deleted meldet, ob der Datensatz am Quellsystem gelöscht wurde.
func (h Header) Deleted() bool {
	return h.Status == "deleted"
}

// Time parst den Datestamp. Tag- und Sekundengranularität werden beide akzeptiert.
func (h Header) Time() (time.Time, error) {
	ds := strings.TrimSpace(h.Datestamp)
	if ds == "" {
		return time.Time{}, errors.New("empty datestamp")
	}
	return dateparse.ParseIn(ds, time.UTC)
}

// Record ist das Ergebnis von GetRecord: Kopf, dekodierte Metadaten und die rohe Antwort.
// Metadata ist nil bei gelöschten Datensätzen.
type Record struct {
	Header   Header
	Metadata *Metadata
	Raw      string
}

// ListArgs sind die Argumente für ListIdentifiers.
type ListArgs struct {
	Prefix string
	Set    string
	From   *time.Time
	Until  *time.Time
}
