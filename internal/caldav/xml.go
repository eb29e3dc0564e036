package caldav

import "encoding/xml"

// multistatus mirrors just enough of a WebDAV/CalDAV multistatus response
// to read the properties this provider cares about, grounded on
// emersion-go-webdav/caldav/elements.go's response element shapes.
type multistatus struct {
	XMLName   xml.Name   `xml:"DAV: multistatus"`
	Responses []response `xml:"response"`
}

type response struct {
	Href string `xml:"href"`
	Prop prop   `xml:"propstat>prop"`
}

type prop struct {
	CurrentUserPrincipal principalHref `xml:"current-user-principal"`
	DisplayName          string        `xml:"displayname"`
	ResourceType         resourceType  `xml:"resourcetype"`
	CalendarColor        string        `xml:"calendar-color"`
	CalendarData         string        `xml:"calendar-data"`
}

type principalHref struct {
	Href string `xml:"href"`
}

type resourceType struct {
	Calendar *struct{} `xml:"calendar"`
}
