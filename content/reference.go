package content

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Reference points to a content item, optionally to one of its versions and
// to a content provider other than the default one.
//
// The textual form is "id", "id_work", "id__provider" or "id_work_provider".
type Reference struct {
	ID       int
	WorkID   int
	Provider string
}

var (
	// EmptyReference points nowhere
	EmptyReference = Reference{}
	// RootReference the global root of the content tree
	RootReference = Reference{ID: 1}
	// WasteBasketReference the recycle bin
	WasteBasketReference = Reference{ID: 2}
)

// ParseReference parses the textual form of a reference
func ParseReference(s string) (Reference, error) {
	var ref Reference
	if s == "" {
		return ref, nil
	}
	parts := strings.SplitN(s, "_", 3)
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return ref, errors.Wrapf(err, "invalid content reference %q", s)
	}
	ref.ID = id
	if len(parts) > 1 && parts[1] != "" {
		if ref.WorkID, err = strconv.Atoi(parts[1]); err != nil {
			return ref, errors.Wrapf(err, "invalid work id in content reference %q", s)
		}
	}
	if len(parts) > 2 {
		ref.Provider = parts[2]
	}
	return ref, nil
}

func (r Reference) String() string {
	s := strconv.Itoa(r.ID)
	switch {
	case r.WorkID != 0 && r.Provider != "":
		return s + "_" + strconv.Itoa(r.WorkID) + "_" + r.Provider
	case r.WorkID != 0:
		return s + "_" + strconv.Itoa(r.WorkID)
	case r.Provider != "":
		return s + "__" + r.Provider
	}
	return s
}

func (r Reference) IsEmpty() bool {
	return r.ID <= 0
}

// WithoutVersion strips the work id
func (r Reference) WithoutVersion() Reference {
	return Reference{ID: r.ID, Provider: r.Provider}
}

// CompareIgnoreWork reports whether both point to the same item regardless of version
func (r Reference) CompareIgnoreWork(o Reference) bool {
	return r.ID == o.ID && r.Provider == o.Provider
}

func (r Reference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reference) UnmarshalText(b []byte) error {
	ref, err := ParseReference(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
