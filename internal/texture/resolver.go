package texture

import (
	"sly-level-decoder/internal/diag"
)

// Role is the shading use of a decoded texture.
type Role uint8

const (
	RoleDiffuse Role = iota
	RoleUnknown
)

func (r Role) String() string {
	switch r {
	case RoleDiffuse:
		return "Dif"
	case RoleUnknown:
		return "Unk"
	}
	return "???"
}

// Request is one palette/image pair to decode.
type Request struct {
	Palette int
	Image   int
	Role    Role
}

func roleAt(i int) Role {
	if i == 0 {
		return RoleDiffuse
	}
	return RoleUnknown
}

// Plan turns an assignment's index lists into decode requests. The first
// request is always the diffuse one. warn is non-nil when the lists had no
// exact pairing and Plan fell back (or gave up); it wraps
// diag.ErrAmbiguousAssignment.
func Plan(palettes, images []uint16) (reqs []Request, warn error) {
	np, ni := len(palettes), len(images)
	switch {
	case np == 0 || ni == 0:
		return nil, diag.Errorf(diag.AmbiguousAssignment, 0, "%d palettes, %d images: nothing to pair", np, ni)

	case np == 1 && ni == 1:
		return []Request{{Palette: int(palettes[0]), Image: int(images[0]), Role: RoleDiffuse}}, nil

	case ni == 1:
		for i, p := range palettes {
			reqs = append(reqs, Request{Palette: int(p), Image: int(images[0]), Role: roleAt(i)})
		}
		return reqs, nil

	case np == ni:
		for i := range palettes {
			reqs = append(reqs, Request{Palette: int(palettes[i]), Image: int(images[i]), Role: roleAt(i)})
		}
		return reqs, nil

	case np == 1:
		return nil, diag.Errorf(diag.AmbiguousAssignment, 0, "1 palette, %d images", ni)
	}

	if np%ni != 0 {
		return []Request{{Palette: int(palettes[0]), Image: int(images[0]), Role: RoleDiffuse}},
			diag.Errorf(diag.AmbiguousAssignment, 0, "%d palettes over %d images", np, ni)
	}
	ratio := np / ni
	for i, p := range palettes {
		reqs = append(reqs, Request{Palette: int(p), Image: int(images[i/ratio]), Role: roleAt(i)})
	}
	return reqs, nil
}

// Resolve plans assignment a of descriptor desc and drops requests that name a
// palette or image outside the container's tables. Every dropped request and
// every planning warning is recorded in diags.
func (ct *Container) Resolve(desc, a int, diags *diag.List) []Request {
	if desc < 0 || desc >= len(ct.Descs) {
		diags.Addf(diag.IndexOutOfRange, ct.Offset, "texture descriptor %d of %d", desc, len(ct.Descs))
		return nil
	}
	d := &ct.Descs[desc]
	if a < 0 || a >= len(d.Assignments) {
		diags.Addf(diag.IndexOutOfRange, d.Offset, "descriptor %d: assignment %d of %d", desc, a, len(d.Assignments))
		return nil
	}
	as := &d.Assignments[a]

	reqs, warn := Plan(as.PaletteIndices, as.ImageIndices)
	if warn != nil {
		diags.Add(as.Offset, warn)
	}
	out := reqs[:0]
	for _, r := range reqs {
		if r.Palette >= len(ct.Palettes) {
			diags.Addf(diag.IndexOutOfRange, as.Offset, "descriptor %d: palette %d of %d", desc, r.Palette, len(ct.Palettes))
			continue
		}
		if r.Image >= len(ct.Images) {
			diags.Addf(diag.IndexOutOfRange, as.Offset, "descriptor %d: image %d of %d", desc, r.Image, len(ct.Images))
			continue
		}
		out = append(out, r)
	}
	return out
}
