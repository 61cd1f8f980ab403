package builtin

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// gitVariables collects repository facts for the `git` variable. Outside a
// repository every field stays empty and exists is false; pages can guard
// on it.
func gitVariables(projectDir string) map[string]any {
	info := map[string]any{
		"exists":       false,
		"commit":       "",
		"short_commit": "",
		"branch":       "",
		"tag":          "",
		"author":       "",
		"email":        "",
		"date":         "",
		"message":      "",
	}

	if projectDir == "" {
		projectDir = "."
	}
	repo, err := git.PlainOpenWithOptions(projectDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return info
	}
	head, err := repo.Head()
	if err != nil {
		return info
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return info
	}

	info["exists"] = true
	info["commit"] = commit.Hash.String()
	info["short_commit"] = commit.Hash.String()[:7]
	if head.Name().IsBranch() {
		info["branch"] = head.Name().Short()
	}
	info["tag"] = tagAt(repo, head.Hash())
	info["author"] = commit.Author.Name
	info["email"] = commit.Author.Email
	info["date"] = commit.Author.When.Format("2006-01-02")
	info["message"] = commit.Message

	return info
}

// tagAt returns a tag name pointing at the given commit, or empty.
func tagAt(repo *git.Repository, hash plumbing.Hash) string {
	tags, err := repo.Tags()
	if err != nil {
		return ""
	}
	defer tags.Close()

	name := ""
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if obj, err := repo.TagObject(ref.Hash()); err == nil {
			target = obj.Target
		}
		if target == hash {
			name = ref.Name().Short()
		}
		return nil
	})
	return name
}
