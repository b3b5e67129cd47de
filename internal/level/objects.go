package level

import (
	"fmt"

	"sly-level-decoder/internal/cursor"
)

// descriptorLen is the fixed width of an object's resource descriptor string.
const descriptorLen = 0x40

// Object is an entry of a level's object table.
type Object struct {
	Index  int
	Offset int

	// Descriptor is the raw resource descriptor string. Type is its fourth
	// character and Name the remainder.
	Descriptor string
	Type       byte
	Name       string

	ID0   uint32
	Count uint32
}

// ParseObjectTable reads the object table at the cursor.
func ParseObjectTable(c *cursor.Cursor) ([]Object, error) {
	n, err := c.U16()
	if err != nil {
		return nil, fmt.Errorf("level: object table count: %w", err)
	}
	objects := make([]Object, 0, n)
	for i := 0; i < int(n); i++ {
		o := Object{Index: i, Offset: c.Offset()}
		if o.Descriptor, err = c.String(descriptorLen); err != nil {
			return nil, fmt.Errorf("level: object %d: %w", i, err)
		}
		if len(o.Descriptor) > 3 {
			o.Type = o.Descriptor[3]
		}
		if len(o.Descriptor) > 4 {
			o.Name = o.Descriptor[4:]
		}
		c.Skip(2 * 4)
		if o.ID0, err = c.U32(); err != nil {
			return nil, fmt.Errorf("level: object %d: %w", i, err)
		}
		c.Skip(4)
		if o.Count, err = c.U32(); err != nil {
			return nil, fmt.Errorf("level: object %d: %w", i, err)
		}
		objects = append(objects, o)
	}
	return objects, nil
}
