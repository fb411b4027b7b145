package domain

// ImageUpload is a photo supplied through the file picker, held in the
// session until the analysis call forwards it.
type ImageUpload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
