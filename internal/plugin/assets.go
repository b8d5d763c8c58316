package plugin

import "github.com/dshills/stagehand/internal/media"

// AssetLookup resolves asset ids to registered media descriptors.
type AssetLookup interface {
	Get(id string) (media.Descriptor, bool)
}

// AssetBinder is implemented by instances whose media include the assets
// their body references. The registry binds its asset lookup to every
// instance it creates.
type AssetBinder interface {
	BindAssets(assets AssetLookup)
}
