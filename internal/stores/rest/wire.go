package rest

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// fieldsResponse is the body of GET .../fields.
type fieldsResponse struct {
	Value []wireField `json:"value"`
}

type wireField struct {
	InternalName        string `json:"InternalName"`
	Title               string `json:"Title"`
	TypeAsString        string `json:"TypeAsString"`
	AllowMultipleValues bool   `json:"AllowMultipleValues"`
	LookupList          string `json:"LookupList"`
}

// itemsResponse is one page of GET .../items. Both the verbose and the
// minimal metadata spelling of the next link are accepted.
type itemsResponse struct {
	Value      []map[string]json.RawMessage `json:"value"`
	NextLink   string                       `json:"odata.nextLink"`
	AtNextLink string                       `json:"@odata.nextLink"`
}

func (r itemsResponse) next() string {
	if r.NextLink != "" {
		return r.NextLink
	}
	return r.AtNextLink
}

func (w wireField) field() (lists.Field, error) {
	kind := lists.ParseFieldKind(w.TypeAsString)
	f := lists.Field{
		InternalName:  w.InternalName,
		Title:         w.Title,
		Kind:          kind,
		AllowMultiple: w.AllowMultipleValues || strings.HasSuffix(w.TypeAsString, "Multi"),
	}

	if kind.IsReference() && w.LookupList != "" {
		id, err := parseListID(w.LookupList)
		if err != nil {
			return lists.Field{}, errors.WrapValidation("LookupList", err)
		}
		f.LookupList = id
	}
	return f, nil
}

// parseListID normalises "{GUID}" and "GUID" to the bare lower-case form.
// The user information list is addressed by a well-known name instead.
func parseListID(s string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(s), "{}")
	if strings.EqualFold(trimmed, "UserInfo") {
		return trimmed, nil
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// itemID reads the identifier attribute of a raw item.
func itemID(raw map[string]json.RawMessage) (int, error) {
	for key, value := range raw {
		if !lists.IsIDAttribute(key) {
			continue
		}
		var id int
		if err := json.Unmarshal(value, &id); err != nil {
			return 0, errors.WrapParse("json", key, err)
		}
		return id, nil
	}
	return 0, &errors.ValidationError{Field: "Id", Message: "item has no identifier"}
}

// stripID removes every spelling of the identifier attribute; the id
// lives in Record.ID only.
func stripID(raw map[string]json.RawMessage) {
	for key := range raw {
		if lists.IsIDAttribute(key) {
			delete(raw, key)
		}
	}
}
