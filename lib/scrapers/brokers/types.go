package brokers

import "encoding/json"

// the platform's tag for a cellular phone entry, as opposed to
// "TELEFONE FIXO" and friends
const MobileContactType = "TELEFONE MÓVEL"

// FlexString tolerates a value the platform returns sometimes as a
// JSON string and sometimes as a number.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		err := json.Unmarshal(b, &v)
		if err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	err := json.Unmarshal(b, &n)
	if err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

type Owner struct {
	Name           string `json:"name"`
	ResidentName   string `json:"residentName"`
	FullName       string `json:"fullName"`
	DocumentNumber string `json:"documentNumber"`
	DocumentType   string `json:"documentType"`
}

// Resident is one address row returned by the search endpoint. The
// platform renames fields between releases so the accessors below
// probe every candidate it has been seen using.
type Resident struct {
	Name              string     `json:"name"`
	ResidentName      string     `json:"residentName"`
	Document          string     `json:"document"`
	DocumentEncrypted string     `json:"documentEncrypted"`
	EncryptedDocument string     `json:"encryptedDocument"`
	CpfEncrypted      string     `json:"cpfEncrypted"`
	Cpf               string     `json:"cpf"`
	Number            FlexString `json:"number"`
	HouseNumber       FlexString `json:"houseNumber"`
	Street            string     `json:"street"`
	StreetName        string     `json:"streetName"`
	City              string     `json:"city"`
	CityName          string     `json:"cityName"`
	CityId            int64      `json:"cityId"`
	Neighborhood      string     `json:"neighborhood"`
	NeighborhoodName  string     `json:"neighborhoodName"`
	Bairro            string     `json:"bairro"`
	Uf                string     `json:"uf"`
	State             string     `json:"state"`
	Complement        string     `json:"complement"`
	Type              string     `json:"type"`
	Owners            []Owner    `json:"owners"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// DocumentNumber resolves the resident's document and document type.
// Direct fields win, the owners array is the primary source on current
// platform responses.
func (r Resident) DocumentNumber() (value, documentType string) {
	documentType = "CPF"
	if len(r.Owners) > 0 && r.Owners[0].DocumentType != "" {
		documentType = r.Owners[0].DocumentType
	}

	value = firstNonEmpty(
		r.Document,
		r.DocumentEncrypted,
		r.EncryptedDocument,
		r.CpfEncrypted,
		r.Cpf,
	)
	if value == "" && len(r.Owners) > 0 {
		value = r.Owners[0].DocumentNumber
	}
	return value, documentType
}

func (r Resident) DisplayName() string {
	name := firstNonEmpty(r.Name, r.ResidentName)
	if name == "" && len(r.Owners) > 0 {
		name = firstNonEmpty(
			r.Owners[0].Name,
			r.Owners[0].ResidentName,
			r.Owners[0].FullName,
		)
	}
	return name
}

func (r Resident) NumberString() string {
	return firstNonEmpty(string(r.Number), string(r.HouseNumber))
}

func (r Resident) StreetString() string {
	return firstNonEmpty(r.Street, r.StreetName)
}

func (r Resident) CityString() string {
	return firstNonEmpty(r.City, r.CityName)
}

func (r Resident) NeighborhoodString() string {
	return firstNonEmpty(r.Neighborhood, r.NeighborhoodName, r.Bairro)
}

func (r Resident) UfString() string {
	return firstNonEmpty(r.Uf, r.State)
}

// EncryptedContact is the opaque payload produced by the contact-info
// endpoint. Only the decrypt endpoint can make sense of Data.
type EncryptedContact struct {
	Data json.RawMessage `json:"data"`
	Id   int64           `json:"id"`
}

type PfData struct {
	Name string `json:"name"`
}

type ContactEntry struct {
	Type        string  `json:"type"`
	PhoneNumber string  `json:"phoneNumber"`
	Priority    int64   `json:"priority"`
	Score       float64 `json:"score"`
	Plus        bool    `json:"plus"`
	NotDisturb  int64   `json:"notDisturb"`
}

func (e ContactEntry) IsMobile() bool {
	return e.Type == MobileContactType
}

// ContactPerson groups the decrypted contact entries belonging to one
// document holder.
type ContactPerson struct {
	Document     string         `json:"document"`
	PfData       PfData         `json:"pfData"`
	ContactInfos []ContactEntry `json:"contactInfos"`
}

type decryptResponse struct {
	Data []ContactPerson `json:"data"`
}

type contactInfoPayload struct {
	Document     string `json:"document"`
	DocumentType string `json:"documentType"`
	Name         string `json:"name"`
	Number       string `json:"number"`
	Street       string `json:"street"`
	Uf           string `json:"uf"`
	CityId       int64  `json:"cityId"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Complement   string `json:"complement"`
	Type         string `json:"type"`
	Detailing    bool   `json:"detailing"`
}
