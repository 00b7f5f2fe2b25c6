package zacks

import (
	"bytes"
	"mime/multipart"

	"github.com/google/uuid"
)

// EncodeMultipart serializes fields, in order, into a multipart/form-data body with a
// freshly generated boundary. It returns the content type carrying that boundary.
func EncodeMultipart(fields []FormField) (string, []byte, error) {
	return encodeMultipart(fields, uuid.NewString())
}

func encodeMultipart(fields []FormField, boundary string) (string, []byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	err := writer.SetBoundary(boundary)
	if err != nil {
		return "", nil, err
	}

	for _, f := range fields {
		err = writer.WriteField(f.Key, f.Value)
		if err != nil {
			return "", nil, err
		}
	}
	err = writer.Close()
	if err != nil {
		return "", nil, err
	}

	return writer.FormDataContentType(), body.Bytes(), nil
}
