package models

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
