package bgdata

// Source loads complete background samples: the image from a directory, and the
// depth and segmentation from their stores. The stores are owned by the caller.
type Source struct {
	ImageDir string
	Depth    *DepthStore
	Seg      *SegStore
}

// Load returns the raw sample. The three parts may have different resolutions,
// which alignment takes care of.
func (s *Source) Load(name string) (*Sample, error) {
	img, err := LoadImage(s.ImageDir, name)
	if err != nil {
		return nil, err
	}
	depth, err := s.Depth.Get(name)
	if err != nil {
		return nil, err
	}
	seg, err := s.Seg.Get(name)
	if err != nil {
		return nil, err
	}
	return &Sample{
		Name:  name,
		Image: img,
		Depth: depth,
		Seg:   seg,
	}, nil
}
