package bom

import "encoding/xml"

// Wire structs for the BOM precis forecast product XML. Only the parts the
// tracker reads are mapped; everything else is ignored by encoding/xml.

type product struct {
	XMLName  xml.Name    `xml:"product"`
	AMOC     amoc        `xml:"amoc"`
	Forecast forecastSec `xml:"forecast"`
}

type amoc struct {
	Identifier     string         `xml:"identifier"`
	IssueTimeLocal issueTimeLocal `xml:"issue-time-local"`
}

type issueTimeLocal struct {
	TZ    string `xml:"tz,attr"`
	Value string `xml:",chardata"`
}

type forecastSec struct {
	Areas []area `xml:"area"`
}

type area struct {
	Type        string           `xml:"type,attr"`
	Description string           `xml:"description,attr"`
	Periods     []forecastPeriod `xml:"forecast-period"`
}

type forecastPeriod struct {
	StartTimeLocal string        `xml:"start-time-local,attr"`
	Elements       []element     `xml:"element"`
	Texts          []textElement `xml:"text"`
}

type element struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type textElement struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}
