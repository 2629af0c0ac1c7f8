package terraform

import (
	"slices"
	"testing"

	"github.com/depscope/depscope/pkg/extract"
	"github.com/depscope/depscope/pkg/graph"
)

func TestMatch(t *testing.T) {
	e := New()
	if !e.Match("infra/main.tf") {
		t.Error("Match(main.tf) = false")
	}
	if e.Match("infra/main.tf.json") {
		t.Error("Match(main.tf.json) = true")
	}
	if e.Match("infra/main.py") {
		t.Error("Match(main.py) = true")
	}
}

func TestExtractDeclarations(t *testing.T) {
	src := []byte(`
resource "aws_instance" "web" {
  ami = "ami-123"
}

data "aws_ami" "ubuntu" {
  most_recent = true
}

module "vpc" {
  source = "./modules/vpc"
}

variable "region" {
  default = "eu-west-1"
}
`)
	res, err := New().Extract("main.tf", src)
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, d := range res.Decls {
		ids = append(ids, d.ID)
	}
	want := []string{"aws_instance.web", "data.aws_ami.ubuntu", "module.vpc"}
	if !slices.Equal(ids, want) {
		t.Errorf("Decls = %v, want %v", ids, want)
	}
}

func findRef(refs []extract.Reference, target string) (extract.Reference, bool) {
	for _, r := range refs {
		if r.Target == target {
			return r, true
		}
	}
	return extract.Reference{}, false
}

func TestExtractReferences(t *testing.T) {
	src := []byte(`
resource "aws_instance" "web" {
  subnet_id = aws_subnet.main.id
  ami       = data.aws_ami.ubuntu.id
  name      = "web-${aws_vpc.main.id}"
  zone      = var.zone
}
`)
	res, err := New().Extract("main.tf", src)
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range []string{"aws_subnet.main", "data.aws_ami.ubuntu", "aws_vpc.main"} {
		ref, ok := findRef(res.Refs, target)
		if !ok {
			t.Errorf("missing reference to %q in %v", target, res.Refs)
			continue
		}
		if ref.Source != "aws_instance.web" {
			t.Errorf("Source = %q, want aws_instance.web", ref.Source)
		}
		if ref.Kind != graph.KindDirect {
			t.Errorf("Kind(%s) = %q, want direct", target, ref.Kind)
		}
	}
	if _, ok := findRef(res.Refs, "var.zone"); ok {
		t.Error("var traversal must not produce a reference")
	}
}

func TestExtractConditionalReferences(t *testing.T) {
	src := []byte(`
resource "aws_eip" "ip" {
  count       = 2
  instance    = aws_instance.web[count.index].id
  first       = aws_instance.web[0].id
  all_subnets = aws_subnet.main[*].id
}
`)
	res, err := New().Extract("main.tf", src)
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range []string{"aws_instance.web", "aws_subnet.main"} {
		ref, ok := findRef(res.Refs, target)
		if !ok {
			t.Fatalf("missing reference to %q in %v", target, res.Refs)
		}
		if ref.Kind != graph.KindConditional {
			t.Errorf("Kind(%s) = %q, want conditional", target, ref.Kind)
		}
	}
	for _, r := range res.Refs {
		if r.Target == "aws_instance.web" && r.Kind == graph.KindDirect {
			t.Errorf("index-qualified reference leaked as direct: %+v", r)
		}
	}
}

func TestExtractModuleSource(t *testing.T) {
	src := []byte(`
module "vpc" {
  source  = "terraform-aws-modules/vpc/aws"
  cidr    = var.cidr
  peer_id = aws_vpc.main.id
}
`)
	res, err := New().Extract("main.tf", src)
	if err != nil {
		t.Fatal(err)
	}

	ref, ok := findRef(res.Refs, "terraform-aws-modules/vpc/aws")
	if !ok {
		t.Fatalf("module source missing from refs: %v", res.Refs)
	}
	if ref.Source != "module.vpc" {
		t.Errorf("Source = %q, want module.vpc", ref.Source)
	}
	if _, ok := findRef(res.Refs, "aws_vpc.main"); !ok {
		t.Error("module argument reference missing")
	}
}

func TestExtractDependsOn(t *testing.T) {
	src := []byte(`
resource "aws_instance" "app" {
  depends_on = [aws_db_instance.main, module.vpc]
}
`)
	res, err := New().Extract("main.tf", src)
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range []string{"aws_db_instance.main", "module.vpc"} {
		if _, ok := findRef(res.Refs, target); !ok {
			t.Errorf("missing depends_on reference to %q in %v", target, res.Refs)
		}
	}
}

func TestExtractMalformedFile(t *testing.T) {
	res, err := New().Extract("broken.tf", []byte(`resource "aws_instance" {`))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) == 0 {
		t.Error("parse failure should surface as a warning")
	}
}

func TestExtractAttributeTailIndexStaysDirect(t *testing.T) {
	src := []byte(`
resource "aws_instance" "web" {
  az = aws_subnet.main.availability_zones[0]
}
`)
	res, err := New().Extract("main.tf", src)
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := findRef(res.Refs, "aws_subnet.main")
	if !ok {
		t.Fatalf("missing reference in %v", res.Refs)
	}
	if ref.Kind != graph.KindDirect {
		t.Errorf("Kind = %q, want direct (index addresses a value)", ref.Kind)
	}
}
