// Package git clones Git repositories into memory and reads files from the
// checked out tree.
//
// Clones use go-git with billy memfs filesystems for both the object
// storer and the worktree. Both filesystems are wrapped in LimitedFs so a
// hostile or oversized repository cannot exhaust memory. Branch and tag
// clones are shallow; commit clones fetch full history so the requested
// commit is reachable.
//
//	client := git.NewDefaultGitClient()
//	info, err := client.Clone(ctx, &git.CloneConfig{URL: url, Branch: "main"})
//	if err != nil {
//	    return err
//	}
//	defer client.Cleanup(ctx, info)
//
//	data, err := client.GetFileContent(info, "index.yaml")
package git
