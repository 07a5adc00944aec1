package record

// Update is a partial change to a FileRecord. Nil fields are left alone.
type Update struct {
	ListType *ListType `json:"list_type,omitempty"`
	Label    *string   `json:"label,omitempty"`
	Liked    *bool     `json:"liked,omitempty"`
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.ListType == nil && u.Label == nil && u.Liked == nil
}

// Validate rejects unknown list types and empty labels.
func (u Update) Validate() error {
	if u.ListType != nil {
		if _, err := ParseListType(string(*u.ListType)); err != nil {
			return err
		}
	}
	if u.Label != nil && *u.Label == "" {
		return errEmptyLabel
	}
	return nil
}

// Apply returns a copy of rec with u applied.
func (u Update) Apply(rec *FileRecord) *FileRecord {
	out := rec.Clone()
	if u.ListType != nil {
		out.ListType = *u.ListType
	}
	if u.Label != nil {
		out.Label = *u.Label
	}
	if u.Liked != nil {
		out.Liked = *u.Liked
	}
	return out
}
