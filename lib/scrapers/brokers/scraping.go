package brokers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/codes"
)

// returned by GetContactInfo when the platform answered without an
// encrypted payload, the resident simply has nothing on file
var ErrNoContactData = fmt.Errorf("contact info response carried no data")

// SearchResidents queries one window of house numbers on a street.
func (c *Client) SearchResidents(ctx context.Context, street string, initialNumber, finalNumber int, cityId int64) ([]Resident, error) {
	ctx, span := tracer.Start(ctx, "client:SearchResidents")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"Street":        street,
			"InitialNumber": strconv.Itoa(initialNumber),
			"FinalNumber":   strconv.Itoa(finalNumber),
			"CityId":        strconv.FormatInt(cityId, 10),
		}).
		Get("/brokers/residents/external/search")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, err
	}
	err = checkStatus(res)
	if err != nil {
		span.SetStatus(codes.Error, "search returned bad status")
		return nil, err
	}

	var residents []Resident
	err = json.Unmarshal(res.Body(), &residents)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed search response")
		return nil, fmt.Errorf("malformed search response: %w", err)
	}
	return residents, nil
}

// GetContactInfo asks the platform for the encrypted contact payload
// of one resident.
func (c *Client) GetContactInfo(ctx context.Context, resident Resident, defaultCityId int64) (EncryptedContact, error) {
	ctx, span := tracer.Start(ctx, "client:GetContactInfo")
	defer span.End()

	document, documentType := resident.DocumentNumber()
	if document == "" {
		slog.WarnContext(ctx, "resident is missing a document field",
			"name", resident.DisplayName(),
			"number", resident.NumberString(),
			"owners", len(resident.Owners),
		)
	}

	cityId := resident.CityId
	if cityId == 0 {
		cityId = defaultCityId
	}
	residentType := resident.Type
	if residentType == "" {
		residentType = "proprietario"
	}

	payload := contactInfoPayload{
		Document:     document,
		DocumentType: documentType,
		Name:         resident.DisplayName(),
		Number:       resident.NumberString(),
		Street:       resident.StreetString(),
		Uf:           resident.UfString(),
		CityId:       cityId,
		City:         resident.CityString(),
		Neighborhood: resident.NeighborhoodString(),
		Complement:   resident.Complement,
		Type:         residentType,
		Detailing:    true,
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/brokers/residents/external/contactinfo")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "contact info request failed")
		return EncryptedContact{}, err
	}
	err = checkStatus(res)
	if err != nil {
		span.SetStatus(codes.Error, "contact info returned bad status")
		return EncryptedContact{}, err
	}

	var contact EncryptedContact
	err = json.Unmarshal(res.Body(), &contact)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed contact info response")
		return EncryptedContact{}, fmt.Errorf("malformed contact info response: %w", err)
	}
	if len(contact.Data) == 0 || string(contact.Data) == "null" {
		return EncryptedContact{}, ErrNoContactData
	}
	return contact, nil
}

// ReadContactInfo decrypts an encrypted contact payload into the raw,
// unfiltered contact entry lists.
func (c *Client) ReadContactInfo(ctx context.Context, contact EncryptedContact) ([]ContactPerson, error) {
	ctx, span := tracer.Start(ctx, "client:ReadContactInfo")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"data": contact.Data,
			"id":   contact.Id,
		}).
		Post("/brokers/residents/external/contactinfo/read")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decrypt request failed")
		return nil, err
	}
	err = checkStatus(res)
	if err != nil {
		span.SetStatus(codes.Error, "decrypt returned bad status")
		return nil, err
	}

	var decrypted decryptResponse
	err = json.Unmarshal(res.Body(), &decrypted)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed decrypt response")
		return nil, fmt.Errorf("malformed decrypt response: %w", err)
	}
	return decrypted.Data, nil
}
