package profiles

// Merge overlays update onto prev field by field and returns the effective
// content for a new version. prev may be nil for the first version of a
// resume. Lists and maps are replaced wholesale, never unioned. The result
// shares no memory with either input.
func Merge(prev *Content, update Fields) Content {
	var out Content
	if prev != nil {
		out = prev.Clone()
	}

	if update.Name != nil {
		out.Name = *update.Name
	}
	if update.Position != nil {
		out.Position = *update.Position
	}
	if update.Contacts != nil {
		out.Contacts = cloneMap(update.Contacts)
	}
	if update.Summary != nil {
		out.Summary = *update.Summary
	}
	if update.Skills != nil {
		out.Skills = cloneSlice(update.Skills)
	}
	if update.Experience != nil {
		out.Experience = cloneSlice(update.Experience)
	}
	if update.Education != nil {
		out.Education = cloneSlice(update.Education)
	}
	return out
}

// Clone returns a deep copy of c.
func (c Content) Clone() Content {
	return Content{
		Name:       c.Name,
		Position:   c.Position,
		Contacts:   cloneMap(c.Contacts),
		Summary:    c.Summary,
		Skills:     cloneSlice(c.Skills),
		Experience: cloneSlice(c.Experience),
		Education:  cloneSlice(c.Education),
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
